package repository

import (
	"context"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// BillRepository persists bills through the pharmacy API
type BillRepository interface {
	Create(ctx context.Context, input *entity.CreateBillInput) (*entity.Bill, error)
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	List(ctx context.Context, filter entity.BillFilter) ([]entity.Bill, int64, error)
	Delete(ctx context.Context, id string) error
	// SendEmail asks the API to mail the receipt of a bill
	SendEmail(ctx context.Context, id string) error
}
