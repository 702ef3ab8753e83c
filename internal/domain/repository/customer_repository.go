package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// CustomerRepository is the customer directory of the pharmacy API
type CustomerRepository interface {
	// Search runs the free-text lookup used by the billing picker (?q=)
	Search(ctx context.Context, q string) ([]entity.Customer, error)
	// FindByName runs the listing filter (?search=), used for the walk-in lookup
	FindByName(ctx context.Context, name string) ([]entity.Customer, error)
	Create(ctx context.Context, input *entity.CreateCustomerInput) (*entity.Customer, error)
	UpdatePhone(ctx context.Context, id, phone string) error
}
