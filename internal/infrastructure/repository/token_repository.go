package repository

import (
	"context"
	"errors"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	domainRepo "github.com/sangkips/pharmadesk/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository stores the API session token in postgres
func NewTokenRepository(db *gorm.DB) domainRepo.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Load(ctx context.Context, name string) (*entity.StoredToken, error) {
	var tok entity.StoredToken
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *tokenRepository) Save(ctx context.Context, token *entity.StoredToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
		}).
		Create(token).Error
}

func (r *tokenRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&entity.StoredToken{}).Error
}
