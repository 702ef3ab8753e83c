// Package billing holds the client-side cart core: line math, batch
// allocation and the cart store. Nothing here performs I/O.
package billing

import (
	"fmt"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Figures are the derived monetary values of one cart line, unrounded.
type Figures struct {
	Base          decimal.Decimal `json:"base"`
	Discount      decimal.Decimal `json:"discount"`
	AfterDiscount decimal.Decimal `json:"after_discount"`
	Gst           decimal.Decimal `json:"gst"`
	Amount        decimal.Decimal `json:"amount"`
}

// CartTotals are the desk's estimate for an in-progress cart.
// A persisted bill carries entity.BillTotals instead.
type CartTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalGst      decimal.Decimal `json:"total_gst"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// ValidateLine rejects inputs the line math does not accept.
// Out-of-range percentages are a caller error and are never clamped.
func ValidateLine(l entity.CartLine) error {
	var fields []apperror.FieldError
	if l.Quantity <= 0 {
		fields = append(fields, apperror.FieldError{Field: "quantity", Message: "must be a positive integer"})
	}
	if l.UnitPrice.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "unit_price", Message: "must not be negative"})
	}
	if !inPercentRange(l.GSTPercent) {
		fields = append(fields, apperror.FieldError{Field: "gst_percent", Message: "must be between 0 and 100"})
	}
	if !inPercentRange(l.DiscountPercent) {
		fields = append(fields, apperror.FieldError{Field: "discount_percent", Message: "must be between 0 and 100"})
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("Invalid line for %s", l.MedicineName), fields...)
	}
	return nil
}

func inPercentRange(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// LineFigures computes base, discount, gst and amount for a line.
func LineFigures(l entity.CartLine) Figures {
	base := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	discount := base.Mul(l.DiscountPercent).Div(hundred)
	after := base.Sub(discount)
	gst := after.Mul(l.GSTPercent).Div(hundred)
	return Figures{
		Base:          base,
		Discount:      discount,
		AfterDiscount: after,
		Gst:           gst,
		Amount:        after.Add(gst),
	}
}

// ComputeCartTotals sums the figures of every line at full precision.
func ComputeCartTotals(lines []entity.CartLine) CartTotals {
	subtotal, discount, gst := zero, zero, zero
	for _, l := range lines {
		f := LineFigures(l)
		subtotal = subtotal.Add(f.Base)
		discount = discount.Add(f.Discount)
		gst = gst.Add(f.Gst)
	}
	return CartTotals{
		Subtotal:      subtotal,
		TotalDiscount: discount,
		TotalGst:      gst,
		GrandTotal:    subtotal.Sub(discount).Add(gst),
	}
}
