package pharmacyapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
)

type customerRepository struct {
	c *Client
}

// NewCustomerRepository manages customers through c
func NewCustomerRepository(c *Client) repository.CustomerRepository {
	return &customerRepository{c: c}
}

func (r *customerRepository) list(ctx context.Context, params url.Values) ([]entity.Customer, error) {
	var env listEnvelope[customerDTO]
	if err := r.c.get(ctx, "/customers", params, &env); err != nil {
		return nil, err
	}
	out := make([]entity.Customer, 0, len(env.Items))
	for _, c := range env.Items {
		out = append(out, c.toEntity())
	}
	return out, nil
}

func (r *customerRepository) Search(ctx context.Context, q string) ([]entity.Customer, error) {
	return r.list(ctx, url.Values{"q": {q}})
}

func (r *customerRepository) FindByName(ctx context.Context, name string) ([]entity.Customer, error) {
	return r.list(ctx, url.Values{"search": {name}})
}

func (r *customerRepository) Create(ctx context.Context, input *entity.CreateCustomerInput) (*entity.Customer, error) {
	var created customerDTO
	err := r.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/customers",
		body:   createCustomerDTO{Name: input.Name, Phone: input.Phone, Email: input.Email},
	}, &created)
	if err != nil {
		return nil, err
	}
	c := created.toEntity()
	return &c, nil
}

func (r *customerRepository) UpdatePhone(ctx context.Context, id, phone string) error {
	return r.c.do(ctx, request{
		method: http.MethodPut,
		path:   "/customers/" + url.PathEscape(id),
		body:   map[string]string{"phone": phone},
	}, nil)
}
