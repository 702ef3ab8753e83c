// Package receipt turns a persisted bill into printable documents: an HTML
// print surface, an ESC/POS stream for thermal printers, and a PDF.
//
// Every figure on a receipt comes from the server bill. Nothing here
// recomputes line amounts or totals.
package receipt

import (
	"github.com/sangkips/pharmadesk/internal/domain/entity"
)

// DefaultFooter closes every receipt
const DefaultFooter = "Thank you for your purchase!"

// Compose builds the receipt view of bill. customer fills the customer
// block when the bill only carries a customer id.
func Compose(bill *entity.Bill, store entity.StoreProfile, customer *entity.Customer) entity.Receipt {
	rc := entity.Receipt{
		Header:     store,
		BillID:     bill.ID,
		BillNumber: bill.DisplayNumber(),
		Date:       bill.IssuedAt(),
		Items:      make([]entity.ReceiptItem, 0, len(bill.Items)),
		Totals:     bill.Totals,
		Footer:     DefaultFooter,
	}

	c := bill.Customer
	if c == nil && customer != nil && (bill.CustomerID == "" || bill.CustomerID == customer.ID) {
		c = customer
	}
	if c != nil {
		rc.Customer = entity.ReceiptCustomer{
			Name:  c.Name,
			Code:  c.CustomerID,
			Phone: c.Phone,
			Email: c.Email,
		}
	}

	for i, it := range bill.Items {
		rc.Items = append(rc.Items, entity.ReceiptItem{
			Index:       i + 1,
			Name:        it.ProductName,
			BatchNo:     it.BatchNo,
			MRP:         it.MRP,
			Quantity:    it.Quantity,
			DiscountPct: it.DiscountPct,
			GSTPct:      it.GSTPct,
			Amount:      it.LineAmount,
		})
	}
	return rc
}
