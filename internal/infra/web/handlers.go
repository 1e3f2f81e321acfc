package web

import (
	"encoding/json"
	"net/http"

	"telegram-membership-bot/internal/usecase"
)

type statsResponse struct {
	Members  int `json:"members"`
	Channels int `json:"channels"`
}

func statsHandler(memberUC usecase.MembershipUseCase, channelUC usecase.ChannelUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		members, err := memberUC.Count(r.Context())
		if err != nil {
			http.Error(w, "failed to count members", http.StatusInternalServerError)
			return
		}
		channels, err := channelUC.Count(r.Context())
		if err != nil {
			http.Error(w, "failed to count channels", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{Members: members, Channels: channels})
	}
}
