package billing

import (
	"fmt"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/apperror"
)

// AvailableBatches keeps only batches that still have stock, in input order.
func AvailableBatches(batches []entity.Batch) []entity.Batch {
	out := make([]entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.InStock() {
			out = append(out, b)
		}
	}
	return out
}

// Allocate turns requested per-batch quantities into cart lines for medicine.
//
// Entries with qty <= 0 are dropped. A quantity above the batch's available
// stock, or a batch that is not in batches, fails with a validation error.
// When nothing is left the result is an empty-selection error. Lines follow
// the order of batches and inherit the medicine's default rates.
func Allocate(medicine entity.Medicine, batches []entity.Batch, requested map[string]int) ([]entity.CartLine, error) {
	byID := make(map[string]entity.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	selected := make(map[string]int, len(requested))
	for batchID, qty := range requested {
		if qty <= 0 {
			continue
		}
		b, ok := byID[batchID]
		if !ok {
			return nil, apperror.NewValidationError(
				fmt.Sprintf("Batch %s is not available for %s", batchID, medicine.Name),
				apperror.FieldError{Field: "quantities." + batchID, Message: "unknown batch"},
			)
		}
		if qty > b.Quantity {
			return nil, apperror.NewValidationError(
				fmt.Sprintf("Quantity for batch %s exceeds available stock (%d)", b.BatchNo, b.Quantity),
				apperror.FieldError{Field: "quantities." + batchID, Message: fmt.Sprintf("max %d", b.Quantity)},
			)
		}
		selected[batchID] = qty
	}

	if len(selected) == 0 {
		return nil, apperror.NewEmptySelectionError("Please select at least one batch with quantity")
	}

	lines := make([]entity.CartLine, 0, len(selected))
	for _, b := range batches {
		qty, ok := selected[b.ID]
		if !ok {
			continue
		}
		line := entity.CartLine{
			MedicineID:      medicine.ID,
			MedicineName:    medicine.Name,
			BatchID:         b.ID,
			BatchNo:         b.BatchNo,
			Quantity:        qty,
			UnitPrice:       b.MRP,
			GSTPercent:      medicine.GSTPercent,
			DiscountPercent: medicine.DiscountPercent,
		}
		if err := ValidateLine(line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
		// a batch listed twice must not produce two lines
		delete(selected, b.ID)
	}
	return lines, nil
}
