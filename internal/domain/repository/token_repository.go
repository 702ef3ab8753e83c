package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// TokenRepository persists the API session token across restarts
type TokenRepository interface {
	// Load returns nil, nil when nothing is stored under name
	Load(ctx context.Context, name string) (*entity.StoredToken, error)
	Save(ctx context.Context, token *entity.StoredToken) error
	Delete(ctx context.Context, name string) error
}
