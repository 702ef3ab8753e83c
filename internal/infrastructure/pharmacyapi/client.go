// Package pharmacyapi is the typed client of the pharmacy REST API that
// owns medicines, batches, customers, bills and store settings.
package pharmacyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const maxErrorBody = 64 << 10

// Options configure a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS and Burst bound outgoing calls; RPS <= 0 disables the limiter.
	RPS   float64
	Burst int
	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client calls the pharmacy API with the session's bearer token
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// NewClient creates a client. tokens supplies the Authorization header of
// every request.
func NewClient(opts Options, tokens oauth2.TokenSource, logger logrus.FieldLogger) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: base},
		},
		limiter: limiter,
		logger:  logger.WithField("module", "pharmacyapi"),
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperror.NewTransientAPIError("Pharmacy API is busy, please retry", err)
		}
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("pharmacyapi: encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("pharmacyapi: build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// session errors surface through the transport unchanged
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		c.logger.WithFields(logrus.Fields{
			"method": r.method,
			"path":   r.path,
		}).WithError(err).Warn("pharmacy API unreachable")
		return apperror.NewTransientAPIError("Pharmacy API is unreachable", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":  r.method,
		"path":    r.path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("pharmacy API call")

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.NewTransientAPIError("Unexpected response from pharmacy API",
			fmt.Errorf("decode %s %s: %w", r.method, r.path, err))
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// decodeError maps an upstream failure to an AppError. The body's message
// (or error) field is kept as the server message shown to the operator.
func decodeError(status int, raw []byte) *apperror.AppError {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	serverMsg := strings.TrimSpace(eb.Message)
	if serverMsg == "" {
		serverMsg = strings.TrimSpace(eb.Error)
	}

	var appErr *apperror.AppError
	switch {
	case status == http.StatusNotFound:
		appErr = apperror.NewNotFoundError("Resource")
	case status == http.StatusUnauthorized:
		appErr = apperror.NewAppError(http.StatusUnauthorized, apperror.KindUnauthorized, "Pharmacy API rejected the session token")
	case status == http.StatusConflict:
		appErr = apperror.NewConflictError("Conflicting change on the pharmacy API")
	case status >= 500:
		appErr = apperror.NewTransientAPIError("Pharmacy API failed", fmt.Errorf("upstream status %d", status))
	default:
		appErr = apperror.NewAppError(status, apperror.KindValidation, "Pharmacy API rejected the request")
	}
	if serverMsg != "" {
		appErr.Message = serverMsg
		appErr.ServerMessage = serverMsg
	}
	return appErr
}
