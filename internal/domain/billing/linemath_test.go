package billing

import (
	"testing"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(medID, batchID string, price string, qty int, disc, gst string) entity.CartLine {
	return entity.CartLine{
		MedicineID:      medID,
		MedicineName:    "Med " + medID,
		BatchID:         batchID,
		BatchNo:         "B-" + batchID,
		Quantity:        qty,
		UnitPrice:       dec(price),
		DiscountPercent: dec(disc),
		GSTPercent:      dec(gst),
	}
}

func TestLineFigures_ExampleScenario(t *testing.T) {
	f := LineFigures(line("m1", "b1", "100", 2, "10", "5"))

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"base", f.Base, "200"},
		{"discount", f.Discount, "20"},
		{"after discount", f.AfterDiscount, "180"},
		{"gst", f.Gst, "9"},
		{"amount", f.Amount, "189"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s: expected %s, got %s", c.name, c.want, c.got)
		}
	}

	totals := ComputeCartTotals([]entity.CartLine{line("m1", "b1", "100", 2, "10", "5")})
	if !totals.GrandTotal.Equal(dec("189")) {
		t.Fatalf("expected grand total 189, got %s", totals.GrandTotal)
	}
}

func TestLineFigures_AmountMatchesClosedForm(t *testing.T) {
	cases := []entity.CartLine{
		line("m1", "b1", "12.75", 3, "7.5", "12"),
		line("m2", "b2", "0", 4, "0", "18"),
		line("m3", "b3", "99.99", 1, "100", "5"),
		line("m4", "b4", "33.33", 7, "0", "0"),
	}
	tolerance := dec("0.0000001")
	for _, l := range cases {
		f := LineFigures(l)
		qty := decimal.NewFromInt(int64(l.Quantity))
		closed := l.UnitPrice.Mul(qty).
			Mul(decimal.NewFromInt(1).Sub(l.DiscountPercent.Div(hundred))).
			Mul(decimal.NewFromInt(1).Add(l.GSTPercent.Div(hundred)))
		if f.Amount.Sub(closed).Abs().GreaterThan(tolerance) {
			t.Fatalf("line %s: amount %s differs from closed form %s", l.Key(), f.Amount, closed)
		}
	}
}

func TestComputeCartTotals_GrandTotalIdentity(t *testing.T) {
	lines := []entity.CartLine{
		line("m1", "b1", "12.75", 3, "7.5", "12"),
		line("m2", "b2", "49.5", 2, "2", "5"),
		line("m3", "b3", "3.33", 9, "0", "18"),
	}
	totals := ComputeCartTotals(lines)
	expected := totals.Subtotal.Sub(totals.TotalDiscount).Add(totals.TotalGst)
	if !totals.GrandTotal.Equal(expected) {
		t.Fatalf("expected grand total %s, got %s", expected, totals.GrandTotal)
	}

	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineFigures(l).Amount)
	}
	if !sum.Equal(totals.GrandTotal) {
		t.Fatalf("expected sum of line amounts %s to equal grand total %s", sum, totals.GrandTotal)
	}
}

func TestComputeCartTotals_Empty(t *testing.T) {
	totals := ComputeCartTotals(nil)
	if !totals.GrandTotal.IsZero() || !totals.Subtotal.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestValidateLine(t *testing.T) {
	cases := []struct {
		name    string
		line    entity.CartLine
		wantErr bool
	}{
		{"valid", line("m", "b", "10", 1, "0", "12"), false},
		{"zero quantity", line("m", "b", "10", 0, "0", "12"), true},
		{"negative quantity", line("m", "b", "10", -2, "0", "12"), true},
		{"negative price", line("m", "b", "-1", 1, "0", "12"), true},
		{"discount above 100", line("m", "b", "10", 1, "100.01", "0"), true},
		{"negative gst", line("m", "b", "10", 1, "0", "-5"), true},
		{"boundary percentages", line("m", "b", "10", 1, "100", "100"), false},
	}
	for _, tc := range cases {
		err := ValidateLine(tc.line)
		if tc.wantErr && !apperror.IsKind(err, apperror.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
