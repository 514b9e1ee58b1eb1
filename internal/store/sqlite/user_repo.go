package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"server_go/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (external_id, email, name, image, provider, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	provider := u.Provider
	if provider == "" {
		provider = "oauth"
	}
	res, err := r.db.ExecContext(ctx, query, u.ExternalID, u.Email, u.Name, u.Image, provider)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	u.Provider = provider
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, external_id, email, name, image, provider, created_at FROM users WHERE id = ?`
	return r.scanUser(ctx, query, id)
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query := `SELECT id, external_id, email, name, image, provider, created_at FROM users WHERE external_id = ?`
	return r.scanUser(ctx, query, externalID)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.Name,
		&u.Image,
		&u.Provider,
		&u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}
