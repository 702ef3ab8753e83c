package billing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"golang.org/x/crypto/blake2b"
)

// Cart is the ordered set of lines of one billing session.
// It has a single owner and is not safe for concurrent use.
type Cart struct {
	lines  []entity.CartLine
	totals CartTotals
}

// NewCart returns an empty cart
func NewCart() *Cart {
	c := &Cart{}
	c.recompute()
	return c
}

func (c *Cart) recompute() {
	c.totals = ComputeCartTotals(c.lines)
}

// AddOrReplace replaces every line of medicineID with lines. The new lines
// are appended after the remaining ones. Either all lines are applied or none.
func (c *Cart) AddOrReplace(medicineID string, lines []entity.CartLine) error {
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.MedicineID != medicineID {
			return apperror.NewValidationError(fmt.Sprintf("Line for %s does not belong to medicine %s", l.MedicineID, medicineID))
		}
		if seen[l.BatchID] {
			return apperror.NewValidationError(fmt.Sprintf("Batch %s allocated twice", l.BatchNo))
		}
		seen[l.BatchID] = true
		if err := ValidateLine(l); err != nil {
			return err
		}
	}

	next := make([]entity.CartLine, 0, len(c.lines)+len(lines))
	for _, l := range c.lines {
		if l.MedicineID != medicineID {
			next = append(next, l)
		}
	}
	next = append(next, lines...)
	c.lines = next
	c.recompute()
	return nil
}

// Remove drops the line at index
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.lines) {
		return apperror.NewValidationError(fmt.Sprintf("No cart line at index %d", index))
	}
	c.lines = append(c.lines[:index:index], c.lines[index+1:]...)
	c.recompute()
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
	c.recompute()
}

// Totals returns the memoized cart totals
func (c *Cart) Totals() CartTotals {
	return c.totals
}

// Contains reports whether any line belongs to medicineID
func (c *Cart) Contains(medicineID string) bool {
	for _, l := range c.lines {
		if l.MedicineID == medicineID {
			return true
		}
	}
	return false
}

// ExistingQuantities maps batch IDs to the quantities already allocated for medicineID
func (c *Cart) ExistingQuantities(medicineID string) map[string]int {
	out := make(map[string]int)
	for _, l := range c.lines {
		if l.MedicineID == medicineID {
			out[l.BatchID] = l.Quantity
		}
	}
	return out
}

// Lines returns a copy of the lines in display order
func (c *Cart) Lines() []entity.CartLine {
	out := make([]entity.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Fingerprint is a stable digest of the cart contents, used to prove that a
// failed submission left the cart untouched.
func (c *Cart) Fingerprint() string {
	b, err := json.Marshal(c.lines)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Snapshot is a point-in-time copy of the cart
type Snapshot struct {
	Lines  []entity.CartLine `json:"lines"`
	Totals CartTotals        `json:"totals"`
}

// Snapshot returns a copy of the lines together with their totals
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Lines: c.Lines(), Totals: c.totals}
}
