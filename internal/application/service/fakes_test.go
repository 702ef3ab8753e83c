package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/internal/receipt"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/email"
	"github.com/sangkips/pharmadesk/pkg/money"
	"github.com/sangkips/pharmadesk/pkg/phone"
	"github.com/sangkips/pharmadesk/pkg/printer"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeCustomerRepo struct {
	mu         sync.Mutex
	customers  []entity.Customer
	searches   []string
	finds      int
	created    []entity.CreateCustomerInput
	phones     map[string]string
	searchErr  error
	createErr  error
	phoneErr   error
	searchHook func(q string)
}

func (f *fakeCustomerRepo) Search(_ context.Context, q string) ([]entity.Customer, error) {
	f.mu.Lock()
	f.searches = append(f.searches, q)
	hook, err := f.searchHook, f.searchErr
	out := append([]entity.Customer(nil), f.customers...)
	f.mu.Unlock()

	if hook != nil {
		hook(q)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeCustomerRepo) FindByName(_ context.Context, _ string) ([]entity.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	return append([]entity.Customer(nil), f.customers...), nil
}

func (f *fakeCustomerRepo) Create(_ context.Context, input *entity.CreateCustomerInput) (*entity.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, *input)
	c := entity.Customer{ID: "new-" + input.Name, Name: input.Name, Phone: input.Phone, Email: input.Email}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakeCustomerRepo) UpdatePhone(_ context.Context, id, phoneNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phoneErr != nil {
		return f.phoneErr
	}
	if f.phones == nil {
		f.phones = map[string]string{}
	}
	f.phones[id] = phoneNumber
	return nil
}

func (f *fakeCustomerRepo) searchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

type fakeCatalogRepo struct {
	mu         sync.Mutex
	medicines  []entity.Medicine
	batches    map[string][]entity.Batch
	stock      []entity.StockLevel
	stats      []entity.MedicineStats
	batchCalls int
	stockErr   error
	statsErr   error
	batchHook  func()
}

func (f *fakeCatalogRepo) ListMedicines(_ context.Context, q repository.MedicineQuery) ([]entity.Medicine, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := int64(len(f.medicines))
	start := (q.Page - 1) * q.Limit
	if start < 0 || q.Limit <= 0 {
		return append([]entity.Medicine(nil), f.medicines...), total, nil
	}
	if start >= len(f.medicines) {
		return []entity.Medicine{}, total, nil
	}
	end := start + q.Limit
	if end > len(f.medicines) {
		end = len(f.medicines)
	}
	return append([]entity.Medicine(nil), f.medicines[start:end]...), total, nil
}

func (f *fakeCatalogRepo) ListBatches(_ context.Context, medicineID string) ([]entity.Batch, error) {
	f.mu.Lock()
	f.batchCalls++
	hook := f.batchHook
	out := append([]entity.Batch(nil), f.batches[medicineID]...)
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeCatalogRepo) StockSummary(_ context.Context) ([]entity.StockLevel, error) {
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	return f.stock, nil
}

func (f *fakeCatalogRepo) MedicineStats(_ context.Context, _ int) ([]entity.MedicineStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

type fakeBillRepo struct {
	mu        sync.Mutex
	created   []entity.CreateBillInput
	bills     map[string]*entity.Bill
	emailed   []string
	deleted   []string
	createErr error
	listErr   error
	// block, when set, holds Create until it is closed
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeBillRepo) Create(_ context.Context, input *entity.CreateBillInput) (*entity.Bill, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *input)
	if f.createErr != nil {
		return nil, f.createErr
	}
	bill := &entity.Bill{
		ID:         "bill-1",
		BillNumber: "B-0001",
		CustomerID: input.CustomerID,
		Totals:     entity.BillTotals{GrandTotal: dec("189")},
		CreatedAt:  time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
	}
	for _, it := range input.Items {
		bill.Items = append(bill.Items, entity.BillItem{
			MedicineID:  it.MedicineID,
			BatchID:     it.BatchID,
			ProductName: it.ProductName,
			BatchNo:     it.BatchNo,
			MRP:         it.MRP,
			Quantity:    it.Quantity,
			DiscountPct: it.DiscountPct,
			GSTPct:      it.GSTPct,
			LineAmount:  dec("189"),
		})
	}
	if f.bills == nil {
		f.bills = map[string]*entity.Bill{}
	}
	f.bills[bill.ID] = bill
	return bill, nil
}

func (f *fakeBillRepo) GetByID(_ context.Context, id string) (*entity.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bills[id]; ok {
		return b, nil
	}
	return nil, apperror.NewNotFoundError("Resource")
}

func (f *fakeBillRepo) List(_ context.Context, filter entity.BillFilter) ([]entity.Bill, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []entity.Bill
	for _, b := range f.bills {
		if filter.BillNumber != "" && b.BillNumber != filter.BillNumber {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBillRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bills[id]; !ok {
		return apperror.NewNotFoundError("Resource")
	}
	delete(f.bills, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBillRepo) SendEmail(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailed = append(f.emailed, id)
	return nil
}

func (f *fakeBillRepo) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeSettingsRepo struct {
	profile *entity.StoreProfile
	err     error
}

func (f *fakeSettingsRepo) StoreProfile(_ context.Context) (*entity.StoreProfile, error) {
	return f.profile, f.err
}

type fakePrinter struct {
	mu     sync.Mutex
	jobs   [][]byte
	err    error
	status printer.Status
}

func (f *fakePrinter) Print(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, data)
	return nil
}

func (f *fakePrinter) Status(_ context.Context) printer.Status {
	return f.status
}

type fakeMailer struct {
	enabled bool
	sent    []email.ReceiptEmail
	err     error
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendReceiptEmail(r email.ReceiptEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

type fakePDF struct {
	html []byte
}

func (f *fakePDF) Render(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4 fake"), nil
}

var defaultStore = entity.StoreProfile{Name: "Thangam Medicals", Subtitle: "Pharmacy & General Stores"}

type fixture struct {
	customers *fakeCustomerRepo
	catalog   *fakeCatalogRepo
	bills     *fakeBillRepo
	settings  *fakeSettingsRepo
	printer   *fakePrinter
	mailer    *fakeMailer
	hook      *test.Hook

	customerSvc *CustomerService
	receiptSvc  *ReceiptService
	billing     *BillingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, hook := test.NewNullLogger()
	v := validator.New()
	if err := phone.RegisterValidation(v, "IN"); err != nil {
		t.Fatalf("register phone validation: %v", err)
	}

	f := &fixture{
		customers: &fakeCustomerRepo{},
		catalog: &fakeCatalogRepo{batches: map[string][]entity.Batch{
			"med-1": {
				{ID: "A", MedicineID: "med-1", BatchNo: "PCM-A", Quantity: 5, MRP: dec("100")},
				{ID: "B", MedicineID: "med-1", BatchNo: "PCM-B", Quantity: 10, MRP: dec("100")},
				{ID: "C", MedicineID: "med-1", BatchNo: "PCM-C", Quantity: 0, MRP: dec("90")},
			},
		}},
		bills:    &fakeBillRepo{},
		settings: &fakeSettingsRepo{},
		printer:  &fakePrinter{status: printer.Status{Type: printer.TypeNetwork, Target: "10.0.0.9:9100", Connected: true}},
		mailer:   &fakeMailer{},
		hook:     hook,
	}
	renderer := receipt.NewRenderer(money.NewFormatter("en-IN", "INR"), time.UTC)

	f.customerSvc = NewCustomerService(f.customers, v, "IN", "Walk-in Customer", logger)
	f.receiptSvc = NewReceiptService(f.bills, f.settings, defaultStore, renderer, &fakePDF{}, f.printer, printer.Width58mm, f.mailer, logger)
	f.billing = NewBillingService(f.catalog, f.bills, f.customerSvc, f.receiptSvc, 20*time.Millisecond, time.Hour, logger)
	return f
}

var paracetamol = entity.Medicine{
	ID:              "med-1",
	Name:            "Paracetamol 500",
	GSTPercent:      dec("5"),
	DiscountPercent: dec("10"),
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
