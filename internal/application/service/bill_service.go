package service

import (
	"context"
	"strings"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/pagination"
	"github.com/sirupsen/logrus"
)

// BillService handles bill history
type BillService struct {
	billRepo repository.BillRepository
	logger   logrus.FieldLogger
}

// NewBillService creates a new bill service
func NewBillService(billRepo repository.BillRepository, logger logrus.FieldLogger) *BillService {
	return &BillService{
		billRepo: billRepo,
		logger:   logger.WithField("module", "bills"),
	}
}

// BillListInput filters the bill history
type BillListInput struct {
	BillNumber string
	CustomerID string
}

// List returns one page of bills, newest first as served upstream
func (s *BillService) List(ctx context.Context, params *pagination.PaginationParams, input BillListInput) (*pagination.PaginatedResult[entity.Bill], error) {
	params.Validate()

	bills, total, err := s.billRepo.List(ctx, entity.BillFilter{
		Page:       params.Page,
		Limit:      params.Limit,
		BillNumber: strings.TrimSpace(input.BillNumber),
		CustomerID: strings.TrimSpace(input.CustomerID),
	})
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(bills, pagination.NewPagination(params.Page, params.Limit, total)), nil
}

// Get returns a bill by ID
func (s *BillService) Get(ctx context.Context, id string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Bill")
	}
	return bill, nil
}

// Delete removes a bill
func (s *BillService) Delete(ctx context.Context, id string) error {
	if err := s.billRepo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Bill")
	}
	s.logger.WithField("bill_id", id).Info("bill deleted")
	return nil
}

// notFoundAs names the missing resource unless the server said something more specific
func notFoundAs(err error, resource string) error {
	appErr := apperror.GetAppError(err)
	if appErr.Kind == apperror.KindNotFound && appErr.ServerMessage == "" {
		return apperror.NewNotFoundError(resource)
	}
	return err
}
