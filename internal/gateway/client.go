package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/logger"
	"github.com/angelmondragon/shopdesk/pkg/metrics"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

const (
	requestIDHeader   = "X-Request-Id"
	idempotencyHeader = "Idempotency-Key"
)

// Client is the only component that talks HTTP to the backend. It never
// retries; every failure is returned to the caller as a typed error.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logg      *logger.Logger
	metrics   *metrics.GatewayMetrics
}

// Params groups dependencies for the gateway client.
type Params struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout applies only when HTTPClient is nil; zero keeps the transport default.
	Timeout   time.Duration
	UserAgent string
	Logger    *logger.Logger
	Metrics   *metrics.GatewayMetrics
}

func New(params Params) (*Client, error) {
	raw := strings.TrimSpace(params.BaseURL)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("gateway base url %q must be absolute", raw))
	}
	base.Path = strings.TrimRight(base.Path, "/")

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Timeout}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: params.UserAgent,
		logg:      logg,
		metrics:   params.Metrics,
	}, nil
}

// Request describes one backend call.
type Request struct {
	Resource  string
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Body      any
	// PayloadCheck marks create/update calls: a 4xx answer means the server
	// rejected the submitted fields and is reported as a validation error.
	PayloadCheck bool
	// Idempotent attaches a fresh Idempotency-Key so a duplicated submit is
	// recognised server side.
	Idempotent bool
}

// Do issues req and returns the raw 2xx body.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = c.logg.WithFields(ctx, map[string]any{
		"request_id": requestID,
		"resource":   req.Resource,
		"operation":  req.Operation,
		"method":     req.Method,
		"path":       req.Path,
	})

	body, err := c.do(ctx, req, requestID)
	outcome := "ok"
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	c.metrics.ObserveRequest(req.Resource, req.Operation, outcome, time.Since(start))

	fields := map[string]any{"duration_ms": time.Since(start).Milliseconds()}
	if typed := pkgerrors.As(err); typed != nil {
		fields["status"] = typed.Status()
		fields["error_code"] = typed.Code()
	}
	ctx = c.logg.WithFields(ctx, fields)
	if err != nil {
		c.logg.Warn(ctx, "gateway.request.failed")
		return nil, err
	}
	c.logg.Debug(ctx, "gateway.request.complete")
	return body, nil
}

func (c *Client) do(ctx context.Context, req Request, requestID string) ([]byte, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var reader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, requestID)
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Idempotent {
		httpReq.Header.Set(idempotencyHeader, uuid.NewString())
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, pkgerrors.MetadataFor(pkgerrors.CodeNetwork).PublicMessage)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reading response failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := pkgerrors.CodeServer
		if req.PayloadCheck && isPayloadRejection(resp.StatusCode) {
			code = pkgerrors.CodeValidation
		}
		return nil, pkgerrors.New(code, serverMessage(body, resp.StatusCode)).WithStatus(resp.StatusCode)
	}
	return body, nil
}

func isPayloadRejection(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusNotFound
}

// serverMessage extracts {message} from an error body, falling back to the status text.
func serverMessage(body []byte, status int) string {
	var parsed types.ErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Message); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status))
}
