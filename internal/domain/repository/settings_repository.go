package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// SettingsRepository reads the store profile printed on receipts
type SettingsRepository interface {
	StoreProfile(ctx context.Context) (*entity.StoreProfile, error)
}
