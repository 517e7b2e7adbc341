package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"passvault/internal/domain/user"
)

type UserRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewUserRepository(pool *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		pool: pool,
		log:  log.With("component", "user_repository"),
	}
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash string, masterSalt []byte) (int, error) {
	var userID int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, master_salt)
		 VALUES ($1, $2, $3) RETURNING id`,
		username, passwordHash, masterSalt).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation {
			return 0, user.ErrTaken
		}
		r.log.Error("failed to create user", "username", username, "error", err)
		return 0, fmt.Errorf("create user: %w", err)
	}
	return userID, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (user.User, error) {
	const query = `
		SELECT id, username, password_hash, master_salt, created_at
		FROM users WHERE username = $1`

	var u user.User
	err := r.pool.QueryRow(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.MasterSalt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		r.log.Error("failed to find user", "username", username, "error", err)
		return user.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (user.User, error) {
	const query = `
		SELECT id, username, password_hash, master_salt, created_at
		FROM users WHERE id = $1`

	var u user.User
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.MasterSalt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		r.log.Error("failed to find user", "user_id", id, "error", err)
		return user.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
