package pharmacyapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
)

type catalogRepository struct {
	c *Client
}

// NewCatalogRepository reads medicines and inventory through c
func NewCatalogRepository(c *Client) repository.CatalogRepository {
	return &catalogRepository{c: c}
}

func (r *catalogRepository) ListMedicines(ctx context.Context, q repository.MedicineQuery) ([]entity.Medicine, int64, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var env listEnvelope[medicineDTO]
	if err := r.c.get(ctx, "/medicines", params, &env); err != nil {
		return nil, 0, err
	}
	out := make([]entity.Medicine, 0, len(env.Items))
	for _, m := range env.Items {
		out = append(out, m.toEntity())
	}
	return out, env.Total, nil
}

func (r *catalogRepository) ListBatches(ctx context.Context, medicineID string) ([]entity.Batch, error) {
	var rows []batchDTO
	if err := r.c.get(ctx, "/inventory/batches", url.Values{"medicineId": {medicineID}}, &rows); err != nil {
		return nil, err
	}
	out := make([]entity.Batch, 0, len(rows))
	for _, b := range rows {
		batch := b.toEntity()
		if batch.MedicineID == "" {
			batch.MedicineID = medicineID
		}
		out = append(out, batch)
	}
	return out, nil
}

func (r *catalogRepository) StockSummary(ctx context.Context) ([]entity.StockLevel, error) {
	var rows []stockRowDTO
	if err := r.c.get(ctx, "/inventory/stock-summary", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]entity.StockLevel, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		out = append(out, entity.StockLevel{MedicineID: row.ID, TotalQty: row.TotalQty})
	}
	return out, nil
}

func (r *catalogRepository) MedicineStats(ctx context.Context, expDays int) ([]entity.MedicineStats, error) {
	var rows []statsRowDTO
	if err := r.c.get(ctx, "/inventory/medicine-stats", url.Values{"expDays": {strconv.Itoa(expDays)}}, &rows); err != nil {
		return nil, err
	}
	out := make([]entity.MedicineStats, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		out = append(out, entity.MedicineStats{
			MedicineID:        row.ID,
			TotalBatches:      row.TotalBatches,
			ExpiringSoonCount: row.ExpiringSoonCount,
			TotalInStock:      row.TotalInStock,
		})
	}
	return out, nil
}
