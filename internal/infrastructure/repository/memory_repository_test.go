package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

func TestMemoryIdempotencyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIdempotencyRepository()

	if got, err := repo.GetByKey(ctx, "k1", "s1"); err != nil || got != nil {
		t.Fatalf("expected miss, got %v %v", got, err)
	}

	live := &entity.IdempotencyKey{Key: "k1", Scope: "s1", ResponseCode: 201, ExpiresAt: time.Now().Add(time.Hour)}
	stale := &entity.IdempotencyKey{Key: "k2", Scope: "s1", ResponseCode: 201, ExpiresAt: time.Now().Add(-time.Minute)}
	for _, k := range []*entity.IdempotencyKey{live, stale} {
		if err := repo.Create(ctx, k); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if got, _ := repo.GetByKey(ctx, "k1", "s2"); got != nil {
		t.Fatal("keys must be isolated per scope")
	}
	if got, _ := repo.GetByKey(ctx, "k1", "s1"); got == nil || got.ResponseCode != 201 {
		t.Fatalf("expected stored key, got %+v", got)
	}

	if err := repo.DeleteExpired(ctx); err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if got, _ := repo.GetByKey(ctx, "k2", "s1"); got != nil {
		t.Fatal("expired key should be gone")
	}
	if got, _ := repo.GetByKey(ctx, "k1", "s1"); got == nil {
		t.Fatal("live key should remain")
	}
}

func TestMemoryTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTokenRepository()

	if err := repo.Save(ctx, &entity.StoredToken{Name: "api", Token: "t1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, &entity.StoredToken{Name: "api", Token: "t2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Load(ctx, "api")
	if err != nil || got == nil || got.Token != "t2" {
		t.Fatalf("expected t2, got %+v %v", got, err)
	}
	if err := repo.Delete(ctx, "api"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.Load(ctx, "api"); got != nil {
		t.Fatal("expected token to be deleted")
	}
}
