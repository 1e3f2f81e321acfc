package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"telegram-membership-bot/internal/domain"
)

// Channel is a promotional channel entry rendered as an inline link button:
// display name plus destination URL.
type Channel struct {
	ID        string // UUID
	Name      string
	URL       string
	CreatedAt time.Time
}

// NewChannel creates a channel entry. The (name, url) pair is the natural key;
// the repository upserts on it so repeated adds stay idempotent.
func NewChannel(name, url string) (*Channel, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Channel{
		ID:        uuid.NewString(),
		Name:      name,
		URL:       url,
		CreatedAt: time.Now(),
	}, nil
}
