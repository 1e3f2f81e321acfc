package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

var _ repository.ChannelRepository = (*PostgresChannelRepo)(nil)

type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

func (r *PostgresChannelRepo) Upsert(ctx context.Context, qx repository.Tx, c *model.Channel) error {
	const q = `
INSERT INTO channels (id, name, url, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name, url) DO NOTHING;
`
	if err := pickExec(ctx, r.pool, qx, q, c.ID, c.Name, c.URL, c.CreatedAt); err != nil {
		return fmt.Errorf("upsert channel: %w", translateErr(err))
	}
	return nil
}

func (r *PostgresChannelRepo) List(ctx context.Context, qx repository.Tx) ([]*model.Channel, error) {
	const q = `SELECT id, name, url, created_at FROM channels;`
	rows, err := pickQuery(ctx, r.pool, qx, q)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []*model.Channel
	for rows.Next() {
		var c model.Channel
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return out, nil
}

func (r *PostgresChannelRepo) CountChannels(ctx context.Context, qx repository.Tx) (int, error) {
	row := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM channels;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	return n, nil
}
