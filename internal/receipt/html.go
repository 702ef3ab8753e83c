package receipt

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/money"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLOptions control the print surface
type HTMLOptions struct {
	// AutoPrint opens the print dialog once the page has loaded and closes
	// the window after printing.
	AutoPrint bool
	// Bare drops the Close/Print toolbar, for emails and PDFs.
	Bare bool
}

// Renderer renders receipts using one money formatter and time zone
type Renderer struct {
	formatter *money.Formatter
	location  *time.Location
	tmpl      *template.Template
}

// NewRenderer creates a renderer. A nil location means local time.
func NewRenderer(formatter *money.Formatter, location *time.Location) *Renderer {
	if formatter == nil {
		formatter = money.Default
	}
	if location == nil {
		location = time.Local
	}
	r := &Renderer{formatter: formatter, location: location}
	r.tmpl = template.Must(template.New("receipt.html").Funcs(template.FuncMap{
		"currency": r.formatter.Format,
		"percent":  money.Percent,
		"date": func(t time.Time) string {
			return t.In(r.location).Format("02/01/2006 03:04 PM")
		},
		"orDash": func(s string) string {
			if s == "" {
				return "-"
			}
			return s
		},
	}).ParseFS(templateFS, "templates/receipt.html"))
	return r
}

type htmlView struct {
	entity.Receipt
	Title     string
	AutoPrint bool
	Bare      bool
}

// HTML renders the print surface of rc
func (r *Renderer) HTML(rc entity.Receipt, opts HTMLOptions) ([]byte, error) {
	title := rc.BillNumber
	if title == "" {
		title = "Invoice"
	}
	name := rc.Customer.Name
	if name == "" {
		name = "Customer"
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, htmlView{
		Receipt:   rc,
		Title:     title + " - " + name,
		AutoPrint: opts.AutoPrint,
		Bare:      opts.Bare,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Currency formats an amount the way receipts show it
func (r *Renderer) Currency(d decimal.Decimal) string {
	return r.formatter.Format(d)
}
