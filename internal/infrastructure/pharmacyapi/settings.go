package pharmacyapi

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
)

type settingsRepository struct {
	c *Client
}

// NewSettingsRepository reads store settings through c
func NewSettingsRepository(c *Client) repository.SettingsRepository {
	return &settingsRepository{c: c}
}

func (r *settingsRepository) StoreProfile(ctx context.Context) (*entity.StoreProfile, error) {
	var s settingsDTO
	if err := r.c.get(ctx, "/settings", nil, &s); err != nil {
		return nil, err
	}
	return &entity.StoreProfile{
		Name:     s.StoreName,
		Subtitle: s.StoreSubtitle,
		Phone:    s.StorePhone,
		Address:  s.StoreAddress,
		GSTIN:    s.StoreGstin,
	}, nil
}
