package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pharmadesk/internal/config"
	"github.com/sangkips/pharmadesk/internal/domain/billing"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/enum"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	createBillFallback     = "Failed to create bill"
	createCustomerFallback = "Failed to create customer"

	emailTimeout = 30 * time.Second
)

var (
	// ErrSubmissionInProgress is returned when a session already has a create-bill request outstanding
	ErrSubmissionInProgress = apperror.NewConflictError("A bill is already being submitted for this session")

	errCartLocked   = apperror.NewConflictError("The cart cannot change while a bill is being submitted")
	errStaleSession = apperror.NewConflictError("The billing session changed, please reopen the medicine")
)

// Notification is the operator's request to notify the customer of the bill
type Notification struct {
	Enabled bool   `json:"enabled"`
	Phone   string `json:"phone,omitempty"`
}

// LineView is a cart line with its derived figures
type LineView struct {
	Index int `json:"index"`
	entity.CartLine
	Figures billing.Figures `json:"figures"`
}

// SessionView is the state of a billing session as shown to the operator
type SessionView struct {
	ID         uuid.UUID            `json:"id"`
	State      enum.SubmissionState `json:"state"`
	Epoch      uint64               `json:"epoch"`
	Lines      []LineView           `json:"lines"`
	Totals     billing.CartTotals   `json:"totals"`
	Customer   *entity.Customer     `json:"customer,omitempty"`
	Notify     Notification         `json:"notify"`
	LastError  string               `json:"last_error,omitempty"`
	LastBillID string               `json:"last_bill_id,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// AllocationView is what the batch allocation dialog opens with
type AllocationView struct {
	MedicineID string         `json:"medicine_id"`
	Batches    []entity.Batch `json:"batches"`
	Existing   map[string]int `json:"existing"`
	Epoch      uint64         `json:"epoch"`
}

// BillDraft is the confirmation preview of a bill before it is submitted
type BillDraft struct {
	Customer      *entity.Customer   `json:"customer,omitempty"`
	CustomerLabel string             `json:"customer_label"`
	WalkIn        bool               `json:"walk_in"`
	Lines         []LineView         `json:"lines"`
	Totals        billing.CartTotals `json:"totals"`
	Notify        Notification       `json:"notify"`
}

// SubmitOptions are the operator's choices on the confirmation step
type SubmitOptions struct {
	Print bool
	Email bool
	Notes string
	// RequestKey makes a retried submission create at most one bill upstream.
	RequestKey string
}

// SubmitResult is the outcome of a successful submission
type SubmitResult struct {
	Bill        *entity.Bill   `json:"bill"`
	Receipt     entity.Receipt `json:"receipt"`
	ReceiptHTML string         `json:"receipt_html,omitempty"`
	Print       *PrintResult   `json:"print,omitempty"`
	EmailQueued bool           `json:"email_queued"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// BillingSession is one operator's in-progress bill. All fields behind mu.
type BillingSession struct {
	ID        uuid.UUID
	createdAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	cart      *billing.Cart
	state     enum.SubmissionState
	epoch     uint64
	customer  *entity.Customer
	notify    Notification
	lastError string
	lastBill  *entity.Bill

	searcher *CustomerSearcher
}

func (sess *BillingSession) transition(next enum.SubmissionState) error {
	if !sess.state.CanTransition(next) {
		return apperror.NewConflictError(fmt.Sprintf("Cannot move a %s session to %s", sess.state, next))
	}
	sess.state = next
	return nil
}

func (sess *BillingSession) mutable() error {
	if sess.state.InFlight() {
		return errCartLocked
	}
	return nil
}

func (sess *BillingSession) view() SessionView {
	snap := sess.cart.Snapshot()
	v := SessionView{
		ID:        sess.ID,
		State:     sess.state,
		Epoch:     sess.epoch,
		Lines:     lineViews(snap.Lines),
		Totals:    snap.Totals,
		Notify:    sess.notify,
		LastError: sess.lastError,
		CreatedAt: sess.createdAt,
		UpdatedAt: sess.updatedAt,
	}
	if sess.customer != nil {
		c := *sess.customer
		v.Customer = &c
	}
	if sess.lastBill != nil {
		v.LastBillID = sess.lastBill.ID
	}
	return v
}

func lineViews(lines []entity.CartLine) []LineView {
	out := make([]LineView, 0, len(lines))
	for i, l := range lines {
		out = append(out, LineView{Index: i, CartLine: l, Figures: billing.LineFigures(l)})
	}
	return out
}

// BillingService owns the billing sessions of the desk
type BillingService struct {
	catalogRepo repository.CatalogRepository
	billRepo    repository.BillRepository
	customers   *CustomerService
	receipts    *ReceiptService
	logger      logrus.FieldLogger
	quiet       time.Duration
	ttl         time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*BillingSession

	background sync.WaitGroup
}

// NewBillingService creates a new billing service. Sessions idle for longer
// than ttl are pruned by RunJanitor.
func NewBillingService(
	catalogRepo repository.CatalogRepository,
	billRepo repository.BillRepository,
	customers *CustomerService,
	receipts *ReceiptService,
	quiet, ttl time.Duration,
	logger logrus.FieldLogger,
) *BillingService {
	return &BillingService{
		catalogRepo: catalogRepo,
		billRepo:    billRepo,
		customers:   customers,
		receipts:    receipts,
		logger:      logger.WithField("module", "billing"),
		quiet:       quiet,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*BillingSession),
	}
}

// Open starts an empty billing session
func (s *BillingService) Open() SessionView {
	now := s.now()
	sess := &BillingSession{
		ID:        utils.NewUUID(),
		createdAt: now,
		updatedAt: now,
		cart:      billing.NewCart(),
		state:     enum.SubmissionIdle,
	}
	sess.searcher = NewCustomerSearcher(s.quiet, s.customers.Search, s.logger.WithField("session_id", sess.ID))

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.WithField("session_id", sess.ID).Info("billing session opened")
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}

func (s *BillingService) session(id uuid.UUID) (*BillingSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFoundError("Billing session")
	}
	return sess, nil
}

// Get returns the current state of a session
func (s *BillingService) Get(id uuid.UUID) (SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

// Close discards a session. A session with a submission in flight is kept.
func (s *BillingService) Close(id uuid.UUID) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.state.InFlight() {
		sess.mu.Unlock()
		return ErrSubmissionInProgress
	}
	sess.epoch++
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	sess.searcher.Stop()

	s.logger.WithField("session_id", id).Info("billing session closed")
	return nil
}

// PruneIdle closes sessions untouched for longer than the ttl
func (s *BillingService) PruneIdle() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	var idle []uuid.UUID
	s.mu.RLock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if !sess.state.InFlight() && sess.updatedAt.Before(cutoff) {
			idle = append(idle, id)
		}
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	pruned := 0
	for _, id := range idle {
		if err := s.Close(id); err == nil {
			pruned++
		}
	}
	if pruned > 0 {
		s.logger.WithField("count", pruned).Info("pruned idle billing sessions")
	}
	return pruned
}

// RunJanitor prunes idle sessions every interval until ctx is done
func (s *BillingService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneIdle()
		}
	}
}

// Wait blocks until background receipt emails have finished
func (s *BillingService) Wait() {
	s.background.Wait()
}

// OpenAllocation lists the in-stock batches of a medicine together with the
// quantities the cart already holds for it
func (s *BillingService) OpenAllocation(ctx context.Context, id uuid.UUID, medicineID string) (*AllocationView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	epoch := sess.epoch
	sess.mu.Unlock()

	batches, err := s.catalogRepo.ListBatches(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.epoch != epoch {
		return nil, errStaleSession
	}
	return &AllocationView{
		MedicineID: medicineID,
		Batches:    billing.AvailableBatches(batches),
		Existing:   sess.cart.ExistingQuantities(medicineID),
		Epoch:      epoch,
	}, nil
}

// Allocate replaces the cart lines of medicine with the requested per-batch
// quantities, checked against freshly fetched stock
func (s *BillingService) Allocate(ctx context.Context, id uuid.UUID, medicine entity.Medicine, requested map[string]int) (SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}
	if strings.TrimSpace(medicine.ID) == "" {
		return SessionView{}, apperror.NewValidationError("Medicine is required",
			apperror.FieldError{Field: "medicine.id", Message: "required"})
	}

	sess.mu.Lock()
	if err := sess.mutable(); err != nil {
		sess.mu.Unlock()
		return SessionView{}, err
	}
	epoch := sess.epoch
	sess.mu.Unlock()

	batches, err := s.catalogRepo.ListBatches(ctx, medicine.ID)
	if err != nil {
		return SessionView{}, err
	}
	lines, err := billing.Allocate(medicine, billing.AvailableBatches(batches), requested)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.epoch != epoch {
		return SessionView{}, errStaleSession
	}
	if err := sess.mutable(); err != nil {
		return SessionView{}, err
	}
	if err := sess.cart.AddOrReplace(medicine.ID, lines); err != nil {
		return SessionView{}, err
	}
	sess.updatedAt = s.now()
	return sess.view(), nil
}

// RemoveLine drops the cart line at index
func (s *BillingService) RemoveLine(id uuid.UUID, index int) (SessionView, error) {
	return s.mutate(id, func(sess *BillingSession) error {
		return sess.cart.Remove(index)
	})
}

// ClearCart empties the cart. Allocation dialogs opened before are invalidated.
func (s *BillingService) ClearCart(id uuid.UUID) (SessionView, error) {
	return s.mutate(id, func(sess *BillingSession) error {
		sess.cart.Clear()
		sess.epoch++
		return nil
	})
}

// SelectCustomer makes customer the payee. Changing the payee resets the notification.
func (s *BillingService) SelectCustomer(id uuid.UUID, customer entity.Customer) (SessionView, error) {
	if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.Name) == "" {
		return SessionView{}, apperror.NewValidationError("Please select a customer",
			apperror.FieldError{Field: "customer", Message: "id and name are required"})
	}
	view, err := s.mutate(id, func(sess *BillingSession) error {
		if sess.customer == nil || sess.customer.ID != customer.ID {
			sess.notify = Notification{}
		}
		c := customer
		sess.customer = &c
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	if sess, err := s.session(id); err == nil {
		sess.searcher.Reset()
	}
	return view, nil
}

// ClearCustomer returns the session to the walk-in default
func (s *BillingService) ClearCustomer(id uuid.UUID) (SessionView, error) {
	return s.mutate(id, func(sess *BillingSession) error {
		sess.customer = nil
		sess.notify = Notification{}
		return nil
	})
}

// CreateAndSelectCustomer registers a new customer and selects it
func (s *BillingService) CreateAndSelectCustomer(ctx context.Context, id uuid.UUID, input *entity.CreateCustomerInput) (SessionView, error) {
	if _, err := s.session(id); err != nil {
		return SessionView{}, err
	}
	customer, err := s.customers.Create(ctx, input)
	if err != nil {
		return SessionView{}, withUserMessage(err, apperror.UserMessage(err, createCustomerFallback))
	}
	return s.SelectCustomer(id, *customer)
}

// QueryCustomers schedules a debounced customer lookup
func (s *BillingService) QueryCustomers(id uuid.UUID, q string) (uint64, error) {
	sess, err := s.session(id)
	if err != nil {
		return 0, err
	}
	return sess.searcher.Query(q), nil
}

// CustomerMatches returns the latest applied customer lookup
func (s *BillingService) CustomerMatches(id uuid.UUID) (SearchResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return SearchResult{}, err
	}
	return sess.searcher.Result(), nil
}

// SetNotification turns the customer notification on or off. Enabling it
// needs a selected customer and a valid phone; a phone on file is reused
// when none is given.
func (s *BillingService) SetNotification(id uuid.UUID, enabled bool, phoneNumber string) (SessionView, error) {
	return s.mutate(id, func(sess *BillingSession) error {
		if !enabled {
			sess.notify = Notification{}
			return nil
		}
		if sess.customer == nil {
			return apperror.NewValidationError("Please select a customer to notify",
				apperror.FieldError{Field: "customer", Message: "walk-in customers cannot be notified"})
		}
		raw := strings.TrimSpace(phoneNumber)
		if raw == "" && sess.customer.HasPhone() {
			raw = sess.customer.Phone
		}
		normalized, err := s.customers.NormalizePhone(raw)
		if err != nil {
			return err
		}
		sess.notify = Notification{Enabled: true, Phone: normalized}
		return nil
	})
}

// Preview returns the bill the session would submit, without side effects
func (s *BillingService) Preview(id uuid.UUID) (*BillDraft, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	snap := sess.cart.Snapshot()
	draft := &BillDraft{
		Lines:  lineViews(snap.Lines),
		Totals: snap.Totals,
		Notify: sess.notify,
	}
	if sess.customer != nil {
		c := *sess.customer
		draft.Customer = &c
		draft.CustomerLabel = c.Label()
	} else {
		draft.WalkIn = true
		draft.CustomerLabel = s.customers.WalkInName()
	}
	return draft, nil
}

// Submit creates the bill of the session.
//
// An empty cart fails validation without any network call. While the create
// call is outstanding the session rejects cart changes and further submits.
// On failure the cart is left exactly as it was and the error carries the
// server's message, or "Failed to create bill".
func (s *BillingService) Submit(ctx context.Context, id uuid.UUID, opts SubmitOptions) (*SubmitResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithField("session_id", id)

	sess.mu.Lock()
	if sess.state.InFlight() {
		sess.mu.Unlock()
		return nil, ErrSubmissionInProgress
	}
	if err := sess.transition(enum.SubmissionValidating); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	if sess.cart.IsEmpty() {
		_ = sess.transition(enum.SubmissionIdle)
		sess.mu.Unlock()
		return nil, apperror.NewValidationError("Please add at least one medicine to the bill")
	}
	lines := sess.cart.Lines()
	var customer *entity.Customer
	if sess.customer != nil {
		c := *sess.customer
		customer = &c
	}
	notify := sess.notify
	_ = sess.transition(enum.SubmissionSubmitting)
	sess.lastError = ""
	sess.updatedAt = s.now()
	sess.mu.Unlock()

	bill, payee, warnings, fallback, err := s.createBill(ctx, customer, notify, lines, opts)

	sess.mu.Lock()
	if err != nil {
		msg := apperror.UserMessage(err, fallback)
		_ = sess.transition(enum.SubmissionFailed)
		sess.lastError = msg
		sess.updatedAt = s.now()
		sess.mu.Unlock()

		config.LogError(log, "billing", "Submit", "create bill", map[string]any{"lines": len(lines)}, err)
		return nil, withUserMessage(err, msg)
	}
	_ = sess.transition(enum.SubmissionSucceeded)
	sess.cart.Clear()
	sess.customer = nil
	sess.notify = Notification{}
	sess.epoch++
	sess.lastBill = bill
	sess.updatedAt = s.now()
	sess.mu.Unlock()
	sess.searcher.Reset()

	log.WithFields(logrus.Fields{
		"bill_id":     bill.ID,
		"bill_number": bill.BillNumber,
		"grand_total": bill.Totals.GrandTotal.String(),
	}).Info("bill created")

	result := &SubmitResult{Bill: bill, Warnings: warnings}
	result.Receipt = s.receipts.Compose(ctx, bill, payee)
	if opts.Print {
		page, err := s.receipts.RenderHTML(result.Receipt, true)
		if err != nil {
			log.WithError(err).Warn("receipt html not rendered")
			result.Warnings = append(result.Warnings, "Receipt could not be rendered")
		} else {
			result.ReceiptHTML = string(page)
		}
		result.Print = s.receipts.PrintReceipt(ctx, result.Receipt)
		if result.Print.Warning != "" {
			result.Warnings = append(result.Warnings, result.Print.Warning)
		}
	}
	if opts.Email {
		s.emailInBackground(bill, payee)
		result.EmailQueued = true
	}
	return result, nil
}

// createBill resolves the payee and issues the single create-bill call. The
// returned fallback is the operator message for a failure at that stage.
func (s *BillingService) createBill(
	ctx context.Context,
	customer *entity.Customer,
	notify Notification,
	lines []entity.CartLine,
	opts SubmitOptions,
) (*entity.Bill, *entity.Customer, []string, string, error) {
	var warnings []string

	payee := customer
	if payee == nil {
		walkIn, err := s.customers.ResolveWalkIn(ctx)
		if err != nil {
			return nil, nil, nil, createCustomerFallback, err
		}
		payee = walkIn
	} else if notify.Enabled && payee.Phone != notify.Phone {
		// the record follows the number the notification goes to
		if err := s.customers.SavePhone(ctx, *payee, notify.Phone); err != nil {
			warnings = append(warnings, apperror.GetAppError(err).Message)
		} else {
			payee.Phone = notify.Phone
		}
	}

	input := &entity.CreateBillInput{
		CustomerID: payee.ID,
		Items:      billItems(lines),
		Notes:      strings.TrimSpace(opts.Notes),
		RequestKey: opts.RequestKey,
	}
	bill, err := s.billRepo.Create(ctx, input)
	if err != nil {
		return nil, nil, nil, createBillFallback, err
	}
	return bill, payee, warnings, "", nil
}

func (s *BillingService) emailInBackground(bill *entity.Bill, customer *entity.Customer) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emailTimeout)
		defer cancel()
		if err := s.receipts.EmailBill(ctx, bill, customer); err != nil {
			config.LogWarn(s.logger, "billing", "emailInBackground", "send receipt email", map[string]string{"bill_id": bill.ID}, err)
		}
	}()
}

func (s *BillingService) mutate(id uuid.UUID, fn func(sess *BillingSession) error) (SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.mutable(); err != nil {
		return SessionView{}, err
	}
	if err := fn(sess); err != nil {
		return SessionView{}, err
	}
	sess.updatedAt = s.now()
	return sess.view(), nil
}

func billItems(lines []entity.CartLine) []entity.BillItemInput {
	items := make([]entity.BillItemInput, 0, len(lines))
	for _, l := range lines {
		items = append(items, entity.BillItemInput{
			MedicineID:  l.MedicineID,
			BatchID:     l.BatchID,
			ProductName: l.MedicineName,
			BatchNo:     l.BatchNo,
			MRP:         l.UnitPrice,
			Quantity:    l.Quantity,
			DiscountPct: l.DiscountPercent,
			GSTPct:      l.GSTPercent,
		})
	}
	return items
}

// withUserMessage returns a copy of err's AppError carrying msg
func withUserMessage(err error, msg string) error {
	appErr := *apperror.GetAppError(err)
	appErr.Message = msg
	return &appErr
}
