package service

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/sangkips/pharmadesk/internal/config"
	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/internal/domain/repository"
	"github.com/sangkips/pharmadesk/internal/receipt"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/email"
	"github.com/sangkips/pharmadesk/pkg/printer"
	"github.com/sangkips/pharmadesk/pkg/utils"
	"github.com/sirupsen/logrus"
)

// PDFRenderer prints an HTML document to PDF
type PDFRenderer interface {
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// ReceiptMailer delivers rendered receipts over SMTP
type ReceiptMailer interface {
	Enabled() bool
	SendReceiptEmail(r email.ReceiptEmail) error
}

// ReceiptService renders, prints and mails receipts of persisted bills
type ReceiptService struct {
	billRepo     repository.BillRepository
	settingsRepo repository.SettingsRepository
	fallback     entity.StoreProfile
	renderer     *receipt.Renderer
	pdf          PDFRenderer
	printer      printer.Printer
	paperWidth   int
	mailer       ReceiptMailer
	logger       logrus.FieldLogger
}

// NewReceiptService creates a new receipt service. pdf and mailer may be nil.
func NewReceiptService(
	billRepo repository.BillRepository,
	settingsRepo repository.SettingsRepository,
	fallback entity.StoreProfile,
	renderer *receipt.Renderer,
	pdf PDFRenderer,
	p printer.Printer,
	paperWidth int,
	mailer ReceiptMailer,
	logger logrus.FieldLogger,
) *ReceiptService {
	if p == nil {
		p = printer.NewNullPrinter()
	}
	if paperWidth <= 0 {
		paperWidth = printer.Width58mm
	}
	return &ReceiptService{
		billRepo:     billRepo,
		settingsRepo: settingsRepo,
		fallback:     fallback,
		renderer:     renderer,
		pdf:          pdf,
		printer:      p,
		paperWidth:   paperWidth,
		mailer:       mailer,
		logger:       logger.WithField("module", "receipt"),
	}
}

// PrintResult reports what happened to a print request
type PrintResult struct {
	Receipt entity.Receipt `json:"receipt"`
	Printed bool           `json:"printed"`
	Printer printer.Status `json:"printer"`
	Warning string         `json:"warning,omitempty"`
}

// StoreProfile returns the store settings merged over the configured
// defaults. A failed settings call falls back to the defaults.
func (s *ReceiptService) StoreProfile(ctx context.Context) entity.StoreProfile {
	if s.settingsRepo == nil {
		return s.fallback
	}
	profile, err := s.settingsRepo.StoreProfile(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("store settings unavailable, using defaults")
		return s.fallback
	}
	if profile == nil {
		return s.fallback
	}
	return profile.Merge(s.fallback)
}

// Bill fetches a persisted bill
func (s *ReceiptService) Bill(ctx context.Context, id string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Bill")
	}
	return bill, nil
}

// Compose builds the receipt of bill. customer fills in for a bill that
// only carries a customer id.
func (s *ReceiptService) Compose(ctx context.Context, bill *entity.Bill, customer *entity.Customer) entity.Receipt {
	return receipt.Compose(bill, s.StoreProfile(ctx), customer)
}

// Receipt composes the receipt of a stored bill
func (s *ReceiptService) Receipt(ctx context.Context, billID string) (entity.Receipt, error) {
	bill, err := s.Bill(ctx, billID)
	if err != nil {
		return entity.Receipt{}, err
	}
	return s.Compose(ctx, bill, nil), nil
}

// HTML renders the printable HTML receipt of a stored bill
func (s *ReceiptService) HTML(ctx context.Context, billID string, autoPrint bool) ([]byte, error) {
	rc, err := s.Receipt(ctx, billID)
	if err != nil {
		return nil, err
	}
	return s.renderer.HTML(rc, receipt.HTMLOptions{AutoPrint: autoPrint})
}

// PDF renders the receipt of a stored bill as PDF and suggests a file name
func (s *ReceiptService) PDF(ctx context.Context, billID string) ([]byte, string, error) {
	if s.pdf == nil {
		return nil, "", apperror.NewAppError(http.StatusNotImplemented, apperror.KindInternal, "PDF output is not configured")
	}
	rc, err := s.Receipt(ctx, billID)
	if err != nil {
		return nil, "", err
	}
	page, err := s.renderer.HTML(rc, receipt.HTMLOptions{Bare: true})
	if err != nil {
		return nil, "", err
	}
	doc, err := s.pdf.Render(ctx, page)
	if err != nil {
		config.LogError(s.logger, "receipt", "PDF", "render pdf", map[string]string{"bill_id": billID}, err)
		return nil, "", apperror.ErrInternalServer
	}
	return doc, fmt.Sprintf("receipt-%s.pdf", utils.Slugify(rc.BillNumber)), nil
}

// Print sends the receipt of a stored bill to the thermal printer
func (s *ReceiptService) Print(ctx context.Context, billID string) (*PrintResult, error) {
	rc, err := s.Receipt(ctx, billID)
	if err != nil {
		return nil, err
	}
	return s.PrintReceipt(ctx, rc), nil
}

// PrintReceipt sends rc to the thermal printer. A printer failure is
// reported as a warning, never as an error.
func (s *ReceiptService) PrintReceipt(ctx context.Context, rc entity.Receipt) *PrintResult {
	res := &PrintResult{Receipt: rc, Printer: s.printer.Status(ctx)}
	if res.Printer.Type == printer.TypeNone {
		return res
	}
	if err := s.printer.Print(ctx, s.renderer.ESCPOS(rc, s.paperWidth)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"bill_id": rc.BillID,
			"printer": res.Printer.Target,
		}).WithError(err).Warn("receipt not printed")
		res.Warning = "Receipt could not be printed: " + err.Error()
		return res
	}
	res.Printed = true
	return res
}

// PrinterStatus reports the configured thermal printer
func (s *ReceiptService) PrinterStatus(ctx context.Context) printer.Status {
	return s.printer.Status(ctx)
}

// TestPrint sends a short test page to the thermal printer
func (s *ReceiptService) TestPrint(ctx context.Context) (*PrintResult, error) {
	status := s.printer.Status(ctx)
	res := &PrintResult{Printer: status}
	if status.Type == printer.TypeNone {
		res.Warning = "No printer is configured"
		return res, nil
	}

	store := s.StoreProfile(ctx)
	doc := printer.NewDocument(s.paperWidth)
	doc.SetAlign(printer.AlignCenter).SetBold(true).Text(store.Name).SetBold(false)
	doc.Text("Printer test page").Separator('-')
	doc.SetAlign(printer.AlignLeft).KeyValue("Type", status.Type).KeyValue("Target", status.Target)
	doc.FeedLines(3).Cut()

	if err := s.printer.Print(ctx, doc.Bytes()); err != nil {
		return res, apperror.NewTransientAPIError("Printer is not reachable", err)
	}
	res.Printed = true
	return res, nil
}

// Email sends the receipt of a stored bill to its customer
func (s *ReceiptService) Email(ctx context.Context, billID string) error {
	bill, err := s.Bill(ctx, billID)
	if err != nil {
		return err
	}
	return s.EmailBill(ctx, bill, nil)
}

// EmailBill mails the receipt itself when SMTP is configured and the
// customer has an address; otherwise the pharmacy API sends it.
func (s *ReceiptService) EmailBill(ctx context.Context, bill *entity.Bill, customer *entity.Customer) error {
	rc := s.Compose(ctx, bill, customer)
	if s.mailer != nil && s.mailer.Enabled() && rc.Customer.Email != "" {
		page, err := s.renderer.HTML(rc, receipt.HTMLOptions{Bare: true})
		if err != nil {
			return err
		}
		err = s.mailer.SendReceiptEmail(email.ReceiptEmail{
			To:           rc.Customer.Email,
			CustomerName: rc.Customer.Name,
			StoreName:    rc.Header.Name,
			BillNumber:   rc.BillNumber,
			ReceiptHTML:  template.HTML(page),
		})
		if err != nil {
			config.LogError(s.logger, "receipt", "EmailBill", "smtp send", map[string]string{"bill_id": bill.ID}, err)
			return apperror.NewTransientAPIError("Failed to send email", err)
		}
		s.logger.WithField("bill_id", bill.ID).Info("receipt emailed over smtp")
		return nil
	}

	if err := s.billRepo.SendEmail(ctx, bill.ID); err != nil {
		return err
	}
	s.logger.WithField("bill_id", bill.ID).Info("receipt email requested upstream")
	return nil
}

// RenderHTML renders rc as the browser print surface
func (s *ReceiptService) RenderHTML(rc entity.Receipt, autoPrint bool) ([]byte, error) {
	return s.renderer.HTML(rc, receipt.HTMLOptions{AutoPrint: autoPrint})
}
