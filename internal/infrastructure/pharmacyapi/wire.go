package pharmacyapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// The pharmacy API speaks camelCase JSON with Mongo-style "_id" keys.
// Everything in this file is private to the client.

// ref decodes a reference that is either a bare id string or a populated
// object carrying "_id".
type ref struct {
	ID  string
	Raw json.RawMessage
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &r.ID)
	case b[0] == '{':
		var obj struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		r.ID = obj.ID
		r.Raw = append(json.RawMessage(nil), b...)
		return nil
	default:
		return fmt.Errorf("pharmacyapi: unexpected reference %s", string(b))
	}
}

// apiTime accepts RFC 3339 timestamps and bare dates
type apiTime struct {
	time.Time
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("pharmacyapi: unrecognised time %q", s)
}

func (t *apiTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// listEnvelope decodes either {items, total} or a bare array
type listEnvelope[T any] struct {
	Items []T
	Total int64
}

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		if err := json.Unmarshal(b, &l.Items); err != nil {
			return err
		}
		l.Total = int64(len(l.Items))
		return nil
	}
	var obj struct {
		Items []T    `json:"items"`
		Total *int64 `json:"total"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	l.Items = obj.Items
	if obj.Total != nil {
		l.Total = *obj.Total
	} else {
		l.Total = int64(len(obj.Items))
	}
	return nil
}

type medicineDTO struct {
	ID              string          `json:"_id"`
	Name            string          `json:"name"`
	GenericName     string          `json:"genericName"`
	Manufacturer    string          `json:"manufacturer"`
	GSTPercent      decimal.Decimal `json:"gstPercent"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

func (d medicineDTO) toEntity() entity.Medicine {
	return entity.Medicine{
		ID:              d.ID,
		Name:            d.Name,
		GenericName:     d.GenericName,
		Manufacturer:    d.Manufacturer,
		GSTPercent:      d.GSTPercent,
		DiscountPercent: d.DiscountPercent,
	}
}

type batchDTO struct {
	ID         string          `json:"_id"`
	MedicineID ref             `json:"medicineId"`
	BatchNo    string          `json:"batchNo"`
	Quantity   int             `json:"quantity"`
	MRP        decimal.Decimal `json:"mrp"`
	ExpiryDate *apiTime        `json:"expiryDate"`
}

func (d batchDTO) toEntity() entity.Batch {
	return entity.Batch{
		ID:         d.ID,
		MedicineID: d.MedicineID.ID,
		BatchNo:    d.BatchNo,
		Quantity:   d.Quantity,
		MRP:        d.MRP,
		ExpiryDate: d.ExpiryDate.ptr(),
	}
}

type stockRowDTO struct {
	ID       string `json:"_id"`
	TotalQty int    `json:"totalQty"`
}

type statsRowDTO struct {
	ID                string `json:"_id"`
	TotalBatches      int    `json:"totalBatches"`
	ExpiringSoonCount int    `json:"expiringSoonCount"`
	TotalInStock      int    `json:"totalInStock"`
}

type customerDTO struct {
	ID         string `json:"_id"`
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

func (d customerDTO) toEntity() entity.Customer {
	return entity.Customer{
		ID:         d.ID,
		CustomerID: d.CustomerID,
		Name:       d.Name,
		Phone:      d.Phone,
		Email:      d.Email,
	}
}

type createCustomerDTO struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type billItemDTO struct {
	MedicineID  ref             `json:"medicineId"`
	BatchID     ref             `json:"batchId"`
	ProductName string          `json:"productName"`
	BatchNo     string          `json:"batchNo"`
	MRP         decimal.Decimal `json:"mrp"`
	Quantity    int             `json:"quantity"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	GSTPct      decimal.Decimal `json:"gstPct"`
	LineAmount  decimal.Decimal `json:"lineAmount"`
}

type billDTO struct {
	ID            string          `json:"_id"`
	BillNumber    string          `json:"billNumber"`
	CustomerID    ref             `json:"customerId"`
	Items         []billItemDTO   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalGst      decimal.Decimal `json:"totalGst"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	Notes         string          `json:"notes"`
	BillingDate   *apiTime        `json:"billingDate"`
	CreatedAt     *apiTime        `json:"createdAt"`
}

func (d billDTO) toEntity() (entity.Bill, error) {
	bill := entity.Bill{
		ID:         d.ID,
		BillNumber: d.BillNumber,
		CustomerID: d.CustomerID.ID,
		Items:      make([]entity.BillItem, 0, len(d.Items)),
		Totals: entity.BillTotals{
			Subtotal:      d.Subtotal,
			TotalDiscount: d.TotalDiscount,
			TotalGst:      d.TotalGst,
			GrandTotal:    d.GrandTotal,
		},
		Notes:       d.Notes,
		BillingDate: d.BillingDate.ptr(),
	}
	if d.CreatedAt != nil {
		bill.CreatedAt = d.CreatedAt.Time
	}
	if len(d.CustomerID.Raw) > 0 {
		var c customerDTO
		if err := json.Unmarshal(d.CustomerID.Raw, &c); err != nil {
			return entity.Bill{}, fmt.Errorf("pharmacyapi: bill %s customer: %w", d.ID, err)
		}
		ce := c.toEntity()
		bill.Customer = &ce
	}
	for _, it := range d.Items {
		bill.Items = append(bill.Items, entity.BillItem{
			MedicineID:  it.MedicineID.ID,
			BatchID:     it.BatchID.ID,
			ProductName: it.ProductName,
			BatchNo:     it.BatchNo,
			MRP:         it.MRP,
			Quantity:    it.Quantity,
			DiscountPct: it.DiscountPct,
			GSTPct:      it.GSTPct,
			LineAmount:  it.LineAmount,
		})
	}
	return bill, nil
}

// createBillItemDTO sends plain JSON numbers, which is what the API stores.
type createBillItemDTO struct {
	MedicineID  string  `json:"medicineId"`
	BatchID     string  `json:"batchId"`
	ProductName string  `json:"productName"`
	BatchNo     string  `json:"batchNo"`
	MRP         float64 `json:"mrp"`
	Quantity    int     `json:"quantity"`
	DiscountPct float64 `json:"discountPct"`
	GSTPct      float64 `json:"gstPct"`
}

type createBillDTO struct {
	CustomerID string              `json:"customerId,omitempty"`
	Items      []createBillItemDTO `json:"items"`
	Notes      string              `json:"notes"`
}

func newCreateBillDTO(in *entity.CreateBillInput) createBillDTO {
	dto := createBillDTO{
		CustomerID: in.CustomerID,
		Items:      make([]createBillItemDTO, 0, len(in.Items)),
		Notes:      in.Notes,
	}
	for _, it := range in.Items {
		dto.Items = append(dto.Items, createBillItemDTO{
			MedicineID:  it.MedicineID,
			BatchID:     it.BatchID,
			ProductName: it.ProductName,
			BatchNo:     it.BatchNo,
			MRP:         it.MRP.InexactFloat64(),
			Quantity:    it.Quantity,
			DiscountPct: it.DiscountPct.InexactFloat64(),
			GSTPct:      it.GSTPct.InexactFloat64(),
		})
	}
	return dto
}

type settingsDTO struct {
	StoreName     string `json:"storeName"`
	StoreSubtitle string `json:"storeSubtitle"`
	StorePhone    string `json:"storePhone"`
	StoreAddress  string `json:"storeAddress"`
	StoreGstin    string `json:"storeGstin"`
}
