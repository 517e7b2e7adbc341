package user

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, username, passwordHash string, masterSalt []byte) (int, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int) (User, error)
}
