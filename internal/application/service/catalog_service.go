package service

import (
	"context"
	"strings"
	"sync"

	"github.com/sangkips/pharmadesk/internal/domain/billing"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/pagination"
	"github.com/sirupsen/logrus"
)

// ExpiringSoonDays is the window used for the expiring-soon batch count
const ExpiringSoonDays = 30

// CatalogService serves the medicine browser of the billing desk
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	logger      logrus.FieldLogger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalogRepo repository.CatalogRepository, logger logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		logger:      logger.WithField("module", "catalog"),
	}
}

// BatchList is every batch of a medicine and the ones that can be billed
type BatchList struct {
	MedicineID string         `json:"medicine_id"`
	All        []entity.Batch `json:"all"`
	Available  []entity.Batch `json:"available"`
}

// Browse lists one page of medicines with their stock figures
func (s *CatalogService) Browse(ctx context.Context, search string, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.CatalogEntry], error) {
	params.Validate()

	medicines, total, err := s.catalogRepo.ListMedicines(ctx, repository.MedicineQuery{
		Search: strings.TrimSpace(search),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, err
	}

	stock, stats := s.stockFigures(ctx)
	return pagination.NewPaginatedResult(
		joinStock(medicines, stock, stats),
		pagination.NewPagination(params.Page, params.Limit, total),
	), nil
}

// Batches lists the batches of a medicine
func (s *CatalogService) Batches(ctx context.Context, medicineID string) (*BatchList, error) {
	batches, err := s.catalogRepo.ListBatches(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	if batches == nil {
		batches = []entity.Batch{}
	}
	return &BatchList{
		MedicineID: medicineID,
		All:        batches,
		Available:  billing.AvailableBatches(batches),
	}, nil
}

// stockFigures loads the stock summary and medicine stats concurrently.
// Both are best-effort: a failure leaves that map empty.
func (s *CatalogService) stockFigures(ctx context.Context) (map[string]int, map[string]entity.MedicineStats) {
	stock := make(map[string]int)
	stats := make(map[string]entity.MedicineStats)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rows, err := s.catalogRepo.StockSummary(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("stock summary unavailable")
			return
		}
		for _, r := range rows {
			stock[r.MedicineID] = r.TotalQty
		}
	}()
	go func() {
		defer wg.Done()
		rows, err := s.catalogRepo.MedicineStats(ctx, ExpiringSoonDays)
		if err != nil {
			s.logger.WithError(err).Warn("medicine stats unavailable")
			return
		}
		for _, r := range rows {
			stats[r.MedicineID] = r
		}
	}()
	wg.Wait()
	return stock, stats
}

func joinStock(medicines []entity.Medicine, stock map[string]int, stats map[string]entity.MedicineStats) []entity.CatalogEntry {
	entries := make([]entity.CatalogEntry, 0, len(medicines))
	for _, m := range medicines {
		e := entity.CatalogEntry{Medicine: m, InStock: stock[m.ID]}
		if st, ok := stats[m.ID]; ok {
			e.Stats = &st
			if _, ok := stock[m.ID]; !ok {
				e.InStock = st.TotalInStock
			}
		}
		entries = append(entries, e)
	}
	return entries
}
