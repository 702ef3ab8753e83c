package repository

import (
	"context"
	"sync"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	domainRepo "github.com/sangkips/pharmadesk/internal/domain/repository"
)

// Memory stores back STORE_DRIVER=memory. Nothing survives a restart.

type memoryIdempotencyRepository struct {
	mu   sync.Mutex
	keys map[string]entity.IdempotencyKey
}

// NewMemoryIdempotencyRepository keeps idempotency keys in process memory
func NewMemoryIdempotencyRepository() domainRepo.IdempotencyRepository {
	return &memoryIdempotencyRepository{keys: make(map[string]entity.IdempotencyKey)}
}

func scopedKey(key, scope string) string {
	return scope + "\x00" + key
}

func (r *memoryIdempotencyRepository) GetByKey(_ context.Context, key, scope string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ikey, ok := r.keys[scopedKey(key, scope)]
	if !ok {
		return nil, nil
	}
	return &ikey, nil
}

func (r *memoryIdempotencyRepository) Create(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ikey.CreatedAt.IsZero() {
		ikey.CreatedAt = time.Now()
	}
	r.keys[scopedKey(ikey.Key, ikey.Scope)] = *ikey
	return nil
}

func (r *memoryIdempotencyRepository) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for k, v := range r.keys {
		if v.ExpiresAt.Before(now) {
			delete(r.keys, k)
		}
	}
	return nil
}

type memoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]entity.StoredToken
}

// NewMemoryTokenRepository keeps the session token in process memory
func NewMemoryTokenRepository() domainRepo.TokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]entity.StoredToken)}
}

func (r *memoryTokenRepository) Load(_ context.Context, name string) (*entity.StoredToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[name]
	if !ok {
		return nil, nil
	}
	return &tok, nil
}

func (r *memoryTokenRepository) Save(_ context.Context, token *entity.StoredToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.UpdatedAt = time.Now()
	r.tokens[token.Name] = *token
	return nil
}

func (r *memoryTokenRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, name)
	return nil
}
