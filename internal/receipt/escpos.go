package receipt

import (
	"strconv"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/money"
	"github.com/sangkips/pharmadesk/pkg/printer"
)

// ESCPOS renders rc for a thermal printer of the given character width.
// Amounts are printed with two decimals since the paper has room for them.
func (r *Renderer) ESCPOS(rc entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)
	w := doc.Width()

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(rc.Header.Name).
		SetFontSize(printer.FontNormal).
		SetBold(false)
	for _, s := range []string{rc.Header.Subtitle, rc.Header.Address} {
		if s != "" {
			doc.Text(s)
		}
	}
	if rc.Header.Phone != "" {
		doc.Text("Ph: " + rc.Header.Phone)
	}
	if rc.Header.GSTIN != "" {
		doc.Text("GSTIN: " + rc.Header.GSTIN)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Bill No:", rc.BillNumber).
		KeyValue("Date:", rc.Date.In(r.location).Format("02/01/2006 15:04"))

	if rc.Customer.Name != "" {
		doc.KeyValue("Customer:", rc.Customer.Name)
	}
	if rc.Customer.Code != "" {
		doc.KeyValue("ID:", rc.Customer.Code)
	}
	if rc.Customer.Phone != "" {
		doc.KeyValue("Phone:", rc.Customer.Phone)
	}

	qtyW, amtW := 5, 10
	nameW := w - qtyW - amtW
	doc.Separator('-').
		SetBold(true).
		Row(
			printer.Column{Text: "Item", Width: nameW},
			printer.Column{Text: "Qty", Width: qtyW, Right: true},
			printer.Column{Text: "Amount", Width: amtW, Right: true},
		).
		SetBold(false).
		Separator('-')

	for _, it := range rc.Items {
		lines := printer.Wrap(strconv.Itoa(it.Index)+". "+it.Name, nameW-1)
		doc.Row(
			printer.Column{Text: lines[0], Width: nameW},
			printer.Column{Text: strconv.Itoa(it.Quantity), Width: qtyW, Right: true},
			printer.Column{Text: r.formatter.Plain(it.Amount), Width: amtW, Right: true},
		)
		for _, more := range lines[1:] {
			doc.Text("   " + more)
		}
		doc.Text("   @" + r.formatter.Plain(it.MRP) +
			" D:" + money.Percent(it.DiscountPct) +
			" G:" + money.Percent(it.GSTPct))
	}

	doc.Separator('-').
		KeyValue("Subtotal", r.formatter.Plain(rc.Totals.Subtotal)).
		KeyValue("Discount", r.formatter.Plain(rc.Totals.TotalDiscount)).
		KeyValue("GST", r.formatter.Plain(rc.Totals.TotalGst)).
		SetBold(true).
		KeyValue("GRAND TOTAL", r.formatter.Format(rc.Totals.GrandTotal)).
		SetBold(false).
		Separator('-').
		Centered(rc.Footer).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
