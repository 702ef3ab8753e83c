package receipt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/money"
	"github.com/sangkips/pharmadesk/pkg/printer"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleBill() *entity.Bill {
	billed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	return &entity.Bill{
		ID:         "b1",
		BillNumber: "B-0042",
		CustomerID: "c1",
		Items: []entity.BillItem{{
			ProductName: "Paracetamol 500",
			BatchNo:     "PCM-A",
			MRP:         dec("100"),
			Quantity:    2,
			DiscountPct: dec("10"),
			GSTPct:      dec("5"),
			// deliberately not 189: receipts must print what the server says
			LineAmount: dec("777"),
		}},
		Totals: entity.BillTotals{
			Subtotal:      dec("200"),
			TotalDiscount: dec("20"),
			TotalGst:      dec("9"),
			GrandTotal:    dec("4321"),
		},
		BillingDate: &billed,
		CreatedAt:   billed.Add(time.Minute),
	}
}

var store = entity.StoreProfile{
	Name:     "Thangam Medicals",
	Subtitle: "Pharmacy & General Stores",
	Phone:    "0452 123456",
	GSTIN:    "33ABCDE1234F1Z5",
}

func TestCompose_UsesServerFigures(t *testing.T) {
	rc := Compose(sampleBill(), store, &entity.Customer{ID: "c1", Name: "Ravi", CustomerID: "CUST-7"})

	if rc.BillNumber != "B-0042" || rc.Header.Name != "Thangam Medicals" {
		t.Fatalf("unexpected header %+v", rc)
	}
	if !rc.Items[0].Amount.Equal(dec("777")) || !rc.Totals.GrandTotal.Equal(dec("4321")) {
		t.Fatalf("figures must be copied from the bill, got %+v %+v", rc.Items[0], rc.Totals)
	}
	if rc.Items[0].Index != 1 {
		t.Fatalf("items are numbered from 1, got %d", rc.Items[0].Index)
	}
	if rc.Customer.Name != "Ravi" || rc.Customer.Code != "CUST-7" {
		t.Fatalf("fallback customer not used: %+v", rc.Customer)
	}
	if !rc.Date.Equal(*sampleBill().BillingDate) {
		t.Fatalf("expected billing date, got %v", rc.Date)
	}
}

func TestCompose_PopulatedCustomerWins(t *testing.T) {
	bill := sampleBill()
	bill.Customer = &entity.Customer{ID: "c1", Name: "From Server"}
	rc := Compose(bill, store, &entity.Customer{ID: "c1", Name: "Local"})
	if rc.Customer.Name != "From Server" {
		t.Fatalf("expected server customer, got %q", rc.Customer.Name)
	}

	other := sampleBill()
	rc = Compose(other, store, &entity.Customer{ID: "c2", Name: "Someone Else"})
	if rc.Customer.Name != "" {
		t.Fatalf("customer for a different id must not be used, got %q", rc.Customer.Name)
	}
}

func TestHTML(t *testing.T) {
	r := NewRenderer(money.Default, time.UTC)
	rc := Compose(sampleBill(), store, &entity.Customer{ID: "c1", Name: "Ravi", Phone: "+919876543210"})

	out, err := r.HTML(rc, HTMLOptions{AutoPrint: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(out)
	for _, want := range []string{
		"Thangam Medicals",
		"Pharmacy &amp; General Stores",
		"GSTIN: 33ABCDE1234F1Z5",
		"B-0042",
		"16/10/2026",
		"Ravi",
		"&#43;919876543210", // html/template escapes "+"
		"Paracetamol 500",
		"777",
		"4,321",
		"10%",
		"afterprint",
		"window.print()",
		DefaultFooter,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("receipt missing %q", want)
		}
	}

	bare, err := r.HTML(rc, HTMLOptions{Bare: true})
	if err != nil {
		t.Fatalf("render bare: %v", err)
	}
	if bytes.Contains(bare, []byte("afterprint")) || bytes.Contains(bare, []byte("no-print\">")) {
		t.Fatal("bare receipt should have neither toolbar nor print script")
	}
}

func TestHTML_EscapesContent(t *testing.T) {
	r := NewRenderer(nil, nil)
	bill := sampleBill()
	bill.Items[0].ProductName = "<script>alert(1)</script>"
	out, err := r.HTML(Compose(bill, store, nil), HTMLOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bytes.Contains(out, []byte("<script>alert(1)")) {
		t.Fatal("product names must be escaped")
	}
	if !bytes.Contains(out, []byte("<div>-</div>")) {
		t.Fatal("missing customer should render as a dash")
	}
}

func TestESCPOS(t *testing.T) {
	r := NewRenderer(money.Default, time.UTC)
	rc := Compose(sampleBill(), store, &entity.Customer{ID: "c1", Name: "Ravi"})

	out := r.ESCPOS(rc, printer.Width58mm)
	if !bytes.HasPrefix(out, []byte{printer.ESC, '@'}) {
		t.Fatal("stream should start with printer init")
	}
	text := string(out)
	for _, want := range []string{"Thangam Medicals", "B-0042", "Ravi", "1. Paracetamol", "777.00", "4,321", DefaultFooter} {
		if !strings.Contains(text, want) {
			t.Fatalf("ESC/POS output missing %q", want)
		}
	}
	if !bytes.HasSuffix(out, []byte{printer.GS, 'V', 0x01}) {
		t.Fatal("stream should end with a partial cut")
	}
}
