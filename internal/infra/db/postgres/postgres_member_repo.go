package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

var _ repository.MemberRepository = (*PostgresMemberRepo)(nil)

type PostgresMemberRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMemberRepo(pool *pgxpool.Pool) *PostgresMemberRepo {
	return &PostgresMemberRepo{pool: pool}
}

func (r *PostgresMemberRepo) Upsert(ctx context.Context, qx repository.Tx, m *model.Member) error {
	const q = `
INSERT INTO members (telegram_id, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (telegram_id) DO UPDATE SET
  expires_at = EXCLUDED.expires_at,
  updated_at = EXCLUDED.updated_at;
`
	if err := pickExec(ctx, r.pool, qx, q, m.TelegramID, m.ExpiresAt, m.CreatedAt, time.Now()); err != nil {
		return fmt.Errorf("upsert member: %w", translateErr(err))
	}
	return nil
}

func (r *PostgresMemberRepo) FindByTelegramID(ctx context.Context, qx repository.Tx, tgID int64) (*model.Member, error) {
	const q = `
SELECT telegram_id, expires_at, created_at, updated_at
  FROM members WHERE telegram_id = $1;
`
	row := pickRow(ctx, r.pool, qx, q, tgID)
	var m model.Member
	if err := row.Scan(&m.TelegramID, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

func (r *PostgresMemberRepo) List(ctx context.Context, qx repository.Tx) ([]*model.Member, error) {
	const q = `SELECT telegram_id, expires_at, created_at, updated_at FROM members;`
	rows, err := pickQuery(ctx, r.pool, qx, q)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.TelegramID, &m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

func (r *PostgresMemberRepo) CountMembers(ctx context.Context, qx repository.Tx) (int, error) {
	row := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM members;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}
