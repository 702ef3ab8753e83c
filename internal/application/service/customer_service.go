package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/pharmadesk/internal/config"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/phone"
	"github.com/sirupsen/logrus"
)

// MinSearchLength is the shortest query sent to the customer directory
const MinSearchLength = 2

// CustomerService resolves the payee of a bill
type CustomerService struct {
	customerRepo repository.CustomerRepository
	validate     *validator.Validate
	region       string
	walkInName   string
	logger       logrus.FieldLogger
}

// NewCustomerService creates a new customer service. validate must have
// the "phone" tag registered for region.
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	validate *validator.Validate,
	region, walkInName string,
	logger logrus.FieldLogger,
) *CustomerService {
	if walkInName == "" {
		walkInName = "Walk-in Customer"
	}
	return &CustomerService{
		customerRepo: customerRepo,
		validate:     validate,
		region:       region,
		walkInName:   walkInName,
		logger:       logger.WithField("module", "customer"),
	}
}

// WalkInName is the name of the shared anonymous customer
func (s *CustomerService) WalkInName() string {
	return s.walkInName
}

// Search looks customers up by name, phone or display code. Queries shorter
// than MinSearchLength return nothing without calling the API.
func (s *CustomerService) Search(ctx context.Context, q string) ([]entity.Customer, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < MinSearchLength {
		return []entity.Customer{}, nil
	}

	found, err := s.customerRepo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Customer, 0, len(found))
	for _, c := range found {
		if c.Matches(q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create registers a new customer. The phone, when given, is stored in E.164.
func (s *CustomerService) Create(ctx context.Context, input *entity.CreateCustomerInput) (*entity.Customer, error) {
	in := entity.CreateCustomerInput{
		Name:  strings.TrimSpace(input.Name),
		Phone: strings.TrimSpace(input.Phone),
		Email: strings.TrimSpace(input.Email),
	}
	if err := s.validate.Struct(&in); err != nil {
		return nil, apperror.FromValidator(err)
	}
	if in.Phone != "" {
		normalized, err := s.NormalizePhone(in.Phone)
		if err != nil {
			return nil, err
		}
		in.Phone = normalized
	}

	customer, err := s.customerRepo.Create(ctx, &in)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("customer_id", customer.ID).Info("customer created")
	return customer, nil
}

// ResolveWalkIn finds the shared walk-in customer, creating it on first use
func (s *CustomerService) ResolveWalkIn(ctx context.Context) (*entity.Customer, error) {
	found, err := s.customerRepo.FindByName(ctx, "Walk-in")
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].Name == s.walkInName {
			return &found[i], nil
		}
	}

	created, err := s.customerRepo.Create(ctx, &entity.CreateCustomerInput{Name: s.walkInName})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("customer_id", created.ID).Info("walk-in customer created")
	return created, nil
}

// NormalizePhone validates raw for the configured region and returns E.164
func (s *CustomerService) NormalizePhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperror.NewValidationError("Please enter customer phone number",
			apperror.FieldError{Field: "phone", Message: "required"})
	}
	normalized, err := phone.Normalize(raw, s.region)
	if err != nil {
		return "", apperror.NewValidationError("Please enter a valid phone number",
			apperror.FieldError{Field: "phone", Message: err.Error()})
	}
	return normalized, nil
}

// SavePhone stores phone on the customer record. It is best-effort: a
// failure is logged and returned as a partial side effect so the caller
// can carry on.
func (s *CustomerService) SavePhone(ctx context.Context, customer entity.Customer, phoneNumber string) error {
	if customer.Phone == phoneNumber {
		return nil
	}
	if err := s.customerRepo.UpdatePhone(ctx, customer.ID, phoneNumber); err != nil {
		config.LogWarn(s.logger, "customer", "SavePhone", "update customer phone", map[string]string{"customer_id": customer.ID}, err)
		return apperror.NewPartialSideEffectError("Could not save the customer's phone number", err)
	}
	return nil
}
