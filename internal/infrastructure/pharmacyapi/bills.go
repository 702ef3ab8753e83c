package pharmacyapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
)

type billRepository struct {
	c *Client
}

// NewBillRepository persists bills through c
func NewBillRepository(c *Client) repository.BillRepository {
	return &billRepository{c: c}
}

func (r *billRepository) Create(ctx context.Context, input *entity.CreateBillInput) (*entity.Bill, error) {
	key := input.RequestKey
	if key == "" {
		key = uuid.NewString()
	}

	var created billDTO
	err := r.c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/bills",
		body:    newCreateBillDTO(input),
		headers: map[string]string{"Idempotency-Key": key},
	}, &created)
	if err != nil {
		return nil, err
	}
	bill, err := created.toEntity()
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	var dto billDTO
	if err := r.c.get(ctx, "/bills/"+url.PathEscape(id), nil, &dto); err != nil {
		return nil, err
	}
	bill, err := dto.toEntity()
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filter entity.BillFilter) ([]entity.Bill, int64, error) {
	params := url.Values{}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.BillNumber != "" {
		params.Set("billNumber", filter.BillNumber)
	}
	if filter.CustomerID != "" {
		params.Set("customerId", filter.CustomerID)
	}

	var env listEnvelope[billDTO]
	if err := r.c.get(ctx, "/bills", params, &env); err != nil {
		return nil, 0, err
	}
	out := make([]entity.Bill, 0, len(env.Items))
	for _, dto := range env.Items {
		bill, err := dto.toEntity()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, bill)
	}
	return out, env.Total, nil
}

func (r *billRepository) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, request{method: http.MethodDelete, path: "/bills/" + url.PathEscape(id)}, nil)
}

func (r *billRepository) SendEmail(ctx context.Context, id string) error {
	return r.c.do(ctx, request{method: http.MethodPost, path: "/bills/" + url.PathEscape(id) + "/email"}, nil)
}
