package receipt

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// PDFOptions configure the headless browser used for PDF output
type PDFOptions struct {
	// Bin is the Chromium binary; empty lets the launcher find or fetch one.
	Bin string
	// ControlURL connects to an already running browser instead of launching.
	ControlURL string
	Timeout    time.Duration
}

// PDFRenderer prints HTML receipts to PDF through a headless browser.
// The browser is started on first use and reused afterwards.
type PDFRenderer struct {
	opts   PDFOptions
	logger logrus.FieldLogger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewPDFRenderer creates a renderer; no browser is started yet
func NewPDFRenderer(opts PDFOptions, logger logrus.FieldLogger) *PDFRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &PDFRenderer{opts: opts, logger: logger}
}

func (p *PDFRenderer) connect() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser != nil {
		return p.browser, nil
	}

	controlURL := p.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Leakless(false)
		if p.opts.Bin != "" {
			l = l.Bin(p.opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("receipt: launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("receipt: connect browser: %w", err)
	}
	p.logger.WithField("module", "receipt").Info("headless browser ready for PDF output")
	p.browser = browser
	return browser, nil
}

// Render prints html to an A5 PDF
func (p *PDFRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	browser, err := p.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("receipt: open page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("receipt: load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("receipt: wait for document: %w", err)
	}

	// A5 in inches
	width, height := 5.83, 8.27
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
		PaperWidth:      &width,
		PaperHeight:     &height,
	})
	if err != nil {
		return nil, fmt.Errorf("receipt: print to pdf: %w", err)
	}
	return io.ReadAll(stream)
}

// Close shuts the browser down if one was started
func (p *PDFRenderer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.browser = nil
	return err
}
