package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborline/stockgate/internal/domain"
)

// SessionRepo persists offline shop sessions, one row per shop.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) GetByShop(ctx context.Context, shop string) (*domain.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, shop, access_token, scope, expires_at, created_at, updated_at
		 FROM sessions WHERE shop = $1`,
		shop,
	)

	var s domain.Session
	err := row.Scan(&s.ID, &s.Shop, &s.AccessToken, &s.Scope, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetByShop: %w", err)
	}

	return &s, nil
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, shop, access_token, scope, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (shop) DO UPDATE SET
		   access_token = EXCLUDED.access_token,
		   scope = EXCLUDED.scope,
		   expires_at = EXCLUDED.expires_at,
		   updated_at = EXCLUDED.updated_at`,
		s.ID, s.Shop, s.AccessToken, s.Scope, s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Put: %w", err)
	}

	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, shop string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE shop = $1`, shop)
	if err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}
