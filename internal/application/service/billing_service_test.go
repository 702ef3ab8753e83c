package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/enum"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sirupsen/logrus"
)

var ravi = entity.Customer{ID: "c1", CustomerID: "CUST-7", Name: "Ravi Kumar"}

func openWithLine(t *testing.T, f *fixture) uuid.UUID {
	t.Helper()
	id := f.billing.Open().ID
	if _, err := f.billing.Allocate(context.Background(), id, paracetamol, map[string]int{"A": 2}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return id
}

func fingerprint(t *testing.T, f *fixture, id uuid.UUID) string {
	t.Helper()
	sess, err := f.billing.session(id)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.cart.Fingerprint()
}

func TestBillingService_AllocateComputesTotals(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	view, err := f.billing.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Lines))
	}
	if !view.Lines[0].Figures.Amount.Equal(dec("189")) {
		t.Fatalf("expected line amount 189, got %s", view.Lines[0].Figures.Amount)
	}
	if !view.Totals.GrandTotal.Equal(dec("189")) {
		t.Fatalf("expected grand total 189, got %s", view.Totals.GrandTotal)
	}
}

func TestBillingService_ReallocationReplacesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.billing.Open().ID

	if _, err := f.billing.Allocate(ctx, id, paracetamol, map[string]int{"A": 3}); err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	view, err := f.billing.Allocate(ctx, id, paracetamol, map[string]int{"B": 2})
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].BatchID != "B" || view.Lines[0].Quantity != 2 {
		t.Fatalf("expected exactly one line B x2, got %+v", view.Lines)
	}
}

func TestBillingService_AllocateRejectsOverStock(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	before := fingerprint(t, f, id)

	cases := []struct {
		name      string
		requested map[string]int
		kind      apperror.Kind
	}{
		{"exceeds batch stock", map[string]int{"A": 6}, apperror.KindValidation},
		{"empty batch", map[string]int{"C": 1}, apperror.KindValidation},
		{"nothing selected", map[string]int{"A": 0}, apperror.KindEmptySelection},
	}
	for _, tc := range cases {
		_, err := f.billing.Allocate(context.Background(), id, paracetamol, tc.requested)
		if !apperror.IsKind(err, tc.kind) {
			t.Fatalf("%s: expected %s error, got %v", tc.name, tc.kind, err)
		}
	}
	if after := fingerprint(t, f, id); after != before {
		t.Fatalf("rejected allocation changed the cart")
	}
}

func TestBillingService_OpenAllocation(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	alloc, err := f.billing.OpenAllocation(context.Background(), id, "med-1")
	if err != nil {
		t.Fatalf("OpenAllocation: %v", err)
	}
	if len(alloc.Batches) != 2 {
		t.Fatalf("expected the two in-stock batches, got %d", len(alloc.Batches))
	}
	if alloc.Existing["A"] != 2 {
		t.Fatalf("expected existing quantity 2 for batch A, got %v", alloc.Existing)
	}
}

func TestBillingService_OpenAllocationDiscardsStaleFetch(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	f.catalog.batchHook = func() {
		if _, err := f.billing.ClearCart(id); err != nil {
			t.Errorf("ClearCart: %v", err)
		}
	}
	_, err := f.billing.OpenAllocation(context.Background(), id, "med-1")
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected conflict for a fetch that outlived the cart, got %v", err)
	}
}

func TestBillingService_SubmitEmptyCartMakesNoCall(t *testing.T) {
	f := newFixture(t)
	id := f.billing.Open().ID

	_, err := f.billing.Submit(context.Background(), id, SubmitOptions{Print: true})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := f.bills.createCalls(); n != 0 {
		t.Fatalf("expected no create-bill call, got %d", n)
	}
	if f.customers.finds != 0 {
		t.Fatalf("expected no customer lookup, got %d", f.customers.finds)
	}
	view, _ := f.billing.Get(id)
	if view.State != enum.SubmissionIdle {
		t.Fatalf("expected Idle, got %s", view.State)
	}
}

func TestBillingService_SubmitFailureKeepsCart(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "server message shown verbatim",
			err:     &apperror.AppError{Code: 400, Kind: apperror.KindValidation, Message: "Insufficient stock", ServerMessage: "Insufficient stock"},
			message: "Insufficient stock",
		},
		{
			name:    "transient failure falls back",
			err:     apperror.NewTransientAPIError("Pharmacy API is unreachable", errors.New("dial tcp: refused")),
			message: "Failed to create bill",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			id := openWithLine(t, f)
			if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
				t.Fatalf("SelectCustomer: %v", err)
			}
			before := fingerprint(t, f, id)
			f.bills.createErr = tc.err

			_, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, err.Error())
			}

			view, _ := f.billing.Get(id)
			if view.State != enum.SubmissionFailed {
				t.Fatalf("expected Failed, got %s", view.State)
			}
			if view.LastError != tc.message {
				t.Fatalf("expected last error %q, got %q", tc.message, view.LastError)
			}
			if len(view.Lines) != 1 || view.Customer == nil || view.Customer.ID != "c1" {
				t.Fatalf("expected cart and customer preserved, got %+v", view)
			}
			if after := fingerprint(t, f, id); after != before {
				t.Fatalf("failed submission changed the cart")
			}
		})
	}
}

func TestBillingService_SubmitSuccess(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	before, _ := f.billing.Get(id)

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{Print: true, Notes: "  paid cash ", RequestKey: "rk-1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(f.bills.created) != 1 {
		t.Fatalf("expected one create-bill call, got %d", len(f.bills.created))
	}
	in := f.bills.created[0]
	if in.CustomerID != "c1" || in.Notes != "paid cash" || in.RequestKey != "rk-1" {
		t.Fatalf("unexpected create input %+v", in)
	}
	item := in.Items[0]
	if item.MedicineID != "med-1" || item.BatchID != "A" || item.ProductName != "Paracetamol 500" ||
		item.BatchNo != "PCM-A" || !item.MRP.Equal(dec("100")) || item.Quantity != 2 ||
		!item.DiscountPct.Equal(dec("10")) || !item.GSTPct.Equal(dec("5")) {
		t.Fatalf("unexpected wire item %+v", item)
	}

	if res.Bill.ID != "bill-1" || res.Receipt.BillNumber != "B-0001" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Receipt.Customer.Name != "Ravi Kumar" {
		t.Fatalf("expected receipt customer Ravi Kumar, got %q", res.Receipt.Customer.Name)
	}
	if !strings.Contains(res.ReceiptHTML, "afterprint") {
		t.Fatalf("expected auto-print receipt html")
	}
	if res.Print == nil || !res.Print.Printed || len(f.printer.jobs) != 1 {
		t.Fatalf("expected one thermal print job, got %+v", res.Print)
	}

	view, _ := f.billing.Get(id)
	if view.State != enum.SubmissionSucceeded {
		t.Fatalf("expected Succeeded, got %s", view.State)
	}
	if len(view.Lines) != 0 || view.Customer != nil || view.Notify.Enabled {
		t.Fatalf("expected a reset session, got %+v", view)
	}
	if view.Epoch != before.Epoch+1 {
		t.Fatalf("expected epoch bump, got %d -> %d", before.Epoch, view.Epoch)
	}
	if view.LastBillID != "bill-1" {
		t.Fatalf("expected last bill id, got %q", view.LastBillID)
	}
}

func TestBillingService_SubmitWalkIn(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.customers.finds != 1 || len(f.customers.created) != 1 || f.customers.created[0].Name != "Walk-in Customer" {
		t.Fatalf("expected walk-in lookup then creation, got finds=%d created=%+v", f.customers.finds, f.customers.created)
	}
	if res.Bill.CustomerID != "new-Walk-in Customer" {
		t.Fatalf("expected bill for the walk-in customer, got %q", res.Bill.CustomerID)
	}

	// the second bill reuses the walk-in record
	id = openWithLine(t, f)
	if _, err := f.billing.Submit(context.Background(), id, SubmitOptions{}); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if len(f.customers.created) != 1 {
		t.Fatalf("expected walk-in to be created once, got %d", len(f.customers.created))
	}
}

func TestBillingService_SubmitWalkInFailure(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	f.customers.createErr = apperror.NewTransientAPIError("Pharmacy API failed", errors.New("502"))

	_, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
	if err == nil || err.Error() != "Failed to create customer" {
		t.Fatalf("expected walk-in failure message, got %v", err)
	}
	if f.bills.createCalls() != 0 {
		t.Fatalf("expected no create-bill call")
	}
}

func TestBillingService_SubmitInProgress(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	f.bills.block = make(chan struct{})
	f.bills.entered = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
		done <- err
	}()
	<-f.bills.entered

	view, _ := f.billing.Get(id)
	if view.State != enum.SubmissionSubmitting {
		t.Fatalf("expected Submitting, got %s", view.State)
	}
	if _, err := f.billing.Submit(context.Background(), id, SubmitOptions{}); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected ErrSubmissionInProgress, got %v", err)
	}
	if _, err := f.billing.Allocate(context.Background(), id, paracetamol, map[string]int{"B": 1}); !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected cart mutation to be rejected, got %v", err)
	}
	if _, err := f.billing.RemoveLine(id, 0); !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("expected RemoveLine to be rejected, got %v", err)
	}
	if err := f.billing.Close(id); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected Close to be refused, got %v", err)
	}

	close(f.bills.block)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n := f.bills.createCalls(); n != 1 {
		t.Fatalf("expected exactly one create-bill call, got %d", n)
	}
}

func TestBillingService_Notification(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	if _, err := f.billing.SetNotification(id, true, "9876543210"); !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected walk-in notification to be rejected, got %v", err)
	}
	if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}

	cases := []struct {
		phone   string
		message string
	}{
		{"", "Please enter customer phone number"},
		{"12", "Please enter a valid phone number"},
	}
	for _, tc := range cases {
		_, err := f.billing.SetNotification(id, true, tc.phone)
		if err == nil || err.Error() != tc.message {
			t.Fatalf("phone %q: expected %q, got %v", tc.phone, tc.message, err)
		}
	}

	view, err := f.billing.SetNotification(id, true, "98765 43210")
	if err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	if !view.Notify.Enabled || view.Notify.Phone != "+919876543210" {
		t.Fatalf("unexpected notify %+v", view.Notify)
	}

	if _, err := f.billing.Submit(context.Background(), id, SubmitOptions{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := f.customers.phones["c1"]; got != "+919876543210" {
		t.Fatalf("expected phone saved on the customer, got %q", got)
	}
}

func TestBillingService_NotificationReusesPhoneOnFile(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	withPhone := ravi
	withPhone.Phone = "+919812345678"
	if _, err := f.billing.SelectCustomer(id, withPhone); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}

	view, err := f.billing.SetNotification(id, true, "")
	if err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	if view.Notify.Phone != "+919812345678" {
		t.Fatalf("expected phone on file, got %q", view.Notify.Phone)
	}
	if _, err := f.billing.Submit(context.Background(), id, SubmitOptions{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(f.customers.phones) != 0 {
		t.Fatalf("expected no phone update, got %v", f.customers.phones)
	}
}

func TestBillingService_NotificationPersistsChangedPhone(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	withPhone := ravi
	withPhone.Phone = "+919812345678"
	if _, err := f.billing.SelectCustomer(id, withPhone); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	if _, err := f.billing.SetNotification(id, true, "9876543210"); err != nil {
		t.Fatalf("SetNotification: %v", err)
	}

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := f.customers.phones[withPhone.ID]; got != "+919876543210" {
		t.Fatalf("expected the new phone saved on the customer, got %q", got)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}
}

func TestBillingService_PhoneSaveFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	if _, err := f.billing.SetNotification(id, true, "9876543210"); err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	f.customers.phoneErr = errors.New("timeout")

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{})
	if err != nil {
		t.Fatalf("expected billing to continue, got %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "phone") {
		t.Fatalf("expected a phone warning, got %v", res.Warnings)
	}

	warned := false
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["funcName"] == "SavePhone" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected the failed phone update to be logged")
	}
}

func TestBillingService_SelectingAnotherCustomerResetsNotify(t *testing.T) {
	f := newFixture(t)
	id := f.billing.Open().ID
	if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	if _, err := f.billing.SetNotification(id, true, "9876543210"); err != nil {
		t.Fatalf("SetNotification: %v", err)
	}
	view, err := f.billing.SelectCustomer(id, entity.Customer{ID: "c2", Name: "Meena"})
	if err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	if view.Notify.Enabled {
		t.Fatalf("expected notification reset for a new payee")
	}
	view, _ = f.billing.ClearCustomer(id)
	if view.Customer != nil {
		t.Fatalf("expected walk-in after ClearCustomer")
	}
}

func TestBillingService_Preview(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	draft, err := f.billing.Preview(id)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !draft.WalkIn || draft.CustomerLabel != "Walk-in Customer" {
		t.Fatalf("expected walk-in placeholder, got %+v", draft)
	}
	if !draft.Totals.GrandTotal.Equal(dec("189")) || len(draft.Lines) != 1 {
		t.Fatalf("unexpected draft %+v", draft)
	}

	if _, err := f.billing.SelectCustomer(id, ravi); err != nil {
		t.Fatalf("SelectCustomer: %v", err)
	}
	draft, _ = f.billing.Preview(id)
	if draft.WalkIn || draft.CustomerLabel != "Ravi Kumar (CUST-7)" {
		t.Fatalf("unexpected label %q", draft.CustomerLabel)
	}
	if f.bills.createCalls() != 0 || f.customers.finds != 0 {
		t.Fatalf("preview must not call the API")
	}
}

func TestBillingService_CreateAndSelectCustomer(t *testing.T) {
	f := newFixture(t)
	id := f.billing.Open().ID

	view, err := f.billing.CreateAndSelectCustomer(context.Background(), id, &entity.CreateCustomerInput{Name: " Meena ", Phone: "98765 43210"})
	if err != nil {
		t.Fatalf("CreateAndSelectCustomer: %v", err)
	}
	if view.Customer == nil || view.Customer.Name != "Meena" || view.Customer.Phone != "+919876543210" {
		t.Fatalf("unexpected customer %+v", view.Customer)
	}

	_, err = f.billing.CreateAndSelectCustomer(context.Background(), id, &entity.CreateCustomerInput{Name: ""})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBillingService_DebouncedCustomerSearch(t *testing.T) {
	f := newFixture(t)
	f.customers.customers = []entity.Customer{
		{ID: "c1", Name: "Abcdef"},
		{ID: "c2", Name: "Zed"},
	}
	id := f.billing.Open().ID

	var last uint64
	for _, q := range []string{"a", "ab", "abc"} {
		seq, err := f.billing.QueryCustomers(id, q)
		if err != nil {
			t.Fatalf("QueryCustomers: %v", err)
		}
		last = seq
	}

	waitFor(t, "search result", func() bool {
		res, _ := f.billing.CustomerMatches(id)
		return res.Seq == last && !res.Pending
	})

	calls := f.customers.searchCalls()
	if len(calls) != 1 || calls[0] != "abc" {
		t.Fatalf("expected exactly one call for abc, got %v", calls)
	}
	res, _ := f.billing.CustomerMatches(id)
	if len(res.Customers) != 1 || res.Customers[0].ID != "c1" {
		t.Fatalf("expected only the matching customer, got %+v", res.Customers)
	}
}

func TestBillingService_LateSearchResultDiscarded(t *testing.T) {
	f := newFixture(t)
	f.customers.customers = []entity.Customer{
		{ID: "c1", Name: "Abcdef"},
		{ID: "c2", Name: "Abx"},
	}
	started := make(chan struct{})
	release := make(chan struct{})
	returned := make(chan struct{})
	f.customers.searchHook = func(q string) {
		if q != "ab" {
			return
		}
		close(started)
		<-release
		close(returned)
	}
	id := f.billing.Open().ID

	if _, err := f.billing.QueryCustomers(id, "ab"); err != nil {
		t.Fatalf("QueryCustomers: %v", err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("search for ab never started")
	}

	latest, _ := f.billing.QueryCustomers(id, "abc")
	waitFor(t, "abc result", func() bool {
		res, _ := f.billing.CustomerMatches(id)
		return res.Seq == latest && !res.Pending
	})

	close(release)
	<-returned
	time.Sleep(50 * time.Millisecond)

	res, _ := f.billing.CustomerMatches(id)
	if res.Seq != latest || res.Query != "abc" {
		t.Fatalf("expected the abc result to survive the late ab response, got %+v", res)
	}
	if len(res.Customers) != 1 || res.Customers[0].ID != "c1" {
		t.Fatalf("expected only the abc match, got %+v", res.Customers)
	}
}

func TestBillingService_ShortQueryMakesNoCall(t *testing.T) {
	f := newFixture(t)
	id := f.billing.Open().ID

	seq, _ := f.billing.QueryCustomers(id, "a")
	waitFor(t, "search result", func() bool {
		res, _ := f.billing.CustomerMatches(id)
		return res.Seq == seq
	})
	if calls := f.customers.searchCalls(); len(calls) != 0 {
		t.Fatalf("expected no call for a one-letter query, got %v", calls)
	}
}

func TestBillingService_EmailAfterSubmit(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{Email: true})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.EmailQueued {
		t.Fatalf("expected email to be queued")
	}
	f.billing.Wait()
	if len(f.bills.emailed) != 1 || f.bills.emailed[0] != "bill-1" {
		t.Fatalf("expected upstream email for bill-1, got %v", f.bills.emailed)
	}
}

func TestBillingService_PrinterFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	id := openWithLine(t, f)
	f.printer.err = errors.New("connection refused")

	res, err := f.billing.Submit(context.Background(), id, SubmitOptions{Print: true})
	if err != nil {
		t.Fatalf("printer failure must not fail the submission: %v", err)
	}
	if res.Print.Printed || len(res.Warnings) != 1 {
		t.Fatalf("expected a print warning, got %+v", res)
	}
	if res.ReceiptHTML == "" {
		t.Fatalf("expected the browser print surface regardless")
	}
}

func TestBillingService_SessionsLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.billing.Open().ID

	if _, err := f.billing.Get(uuid.New()); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	f.billing.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := f.billing.PruneIdle(); n != 1 {
		t.Fatalf("expected one idle session pruned, got %d", n)
	}
	if _, err := f.billing.Get(id); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("expected pruned session to be gone, got %v", err)
	}
}
