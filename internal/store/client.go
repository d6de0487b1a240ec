// Package store is a client for the spreadsheet-style REST backend that holds
// clients, services, appointments, the weekly schedule and blackouts.
package store

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

var storeTracer = otel.Tracer("barbatero.internal.store")

const (
	defaultBaseURL = "https://api.appsheet.com/api/v2/apps"
	defaultTimeout = 15 * time.Second
	defaultLocale  = "es-ES"

	actionFind = "Find"
	actionAdd  = "Add"
	actionEdit = "Edit"
)

// ErrNotConfigured is returned when the client has no app id or access key.
var ErrNotConfigured = errors.New("store: app id and access key are required")

// Config carries the store endpoint and credentials. Nothing in this package
// reads the environment; callers build Config explicitly.
type Config struct {
	BaseURL   string
	AppID     string
	AccessKey string
	Locale    string
	Timeout   time.Duration
}

// Querier is the read surface the availability core depends on.
type Querier interface {
	// QueryRows runs a filtered Find. The store may spuriously return no rows
	// even when matches exist.
	QueryRows(ctx context.Context, table, filter string) ([]Row, error)
	// ReadAllRows returns every row of the table.
	ReadAllRows(ctx context.Context, table string) ([]Row, error)
}

// Writer is the write surface used by the booking collaborators.
type Writer interface {
	AddRows(ctx context.Context, table string, rows []Row) ([]Row, error)
	EditRows(ctx context.Context, table string, rows []Row) ([]Row, error)
}

// Client talks to the store's table Action endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	accessKey  string
	locale     string
	logger     *logging.Logger
}

// NewClient constructs a store client.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	locale := strings.TrimSpace(cfg.Locale)
	if locale == "" {
		locale = defaultLocale
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      strings.TrimSpace(cfg.AppID),
		accessKey:  strings.TrimSpace(cfg.AccessKey),
		locale:     locale,
		logger:     logger,
	}
}

type actionRequest struct {
	Action     string            `json:"Action"`
	Properties map[string]string `json:"Properties"`
	Rows       []Row             `json:"Rows"`
}

// QueryRows runs a Find action with the given selector expression.
func (c *Client) QueryRows(ctx context.Context, table, filter string) ([]Row, error) {
	rows, err := c.do(ctx, table, actionFind, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", table, err)
	}
	return rows, nil
}

// ReadAllRows runs an unfiltered Find action.
func (c *Client) ReadAllRows(ctx context.Context, table string) ([]Row, error) {
	rows, err := c.do(ctx, table, actionFind, "", nil)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", table, err)
	}
	return rows, nil
}

// AddRows inserts rows and returns what the store echoes back.
func (c *Client) AddRows(ctx context.Context, table string, rows []Row) ([]Row, error) {
	out, err := c.do(ctx, table, actionAdd, "", rows)
	if err != nil {
		return nil, fmt.Errorf("store: add to %s: %w", table, err)
	}
	return out, nil
}

// EditRows updates rows matched by their key column.
func (c *Client) EditRows(ctx context.Context, table string, rows []Row) ([]Row, error) {
	out, err := c.do(ctx, table, actionEdit, "", rows)
	if err != nil {
		return nil, fmt.Errorf("store: edit %s: %w", table, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, table, action, selector string, rows []Row) ([]Row, error) {
	if c.appID == "" || c.accessKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, span := storeTracer.Start(ctx, "store."+strings.ToLower(action), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("store.table", table),
		attribute.Bool("store.filtered", selector != ""),
		attribute.Int("store.rows_sent", len(rows)),
	)

	props := map[string]string{"Locale": c.locale}
	if selector != "" {
		props["Selector"] = selector
	}
	if rows == nil {
		rows = []Row{}
	}
	payload, err := json.Marshal(actionRequest{Action: action, Properties: props, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/tables/%s/Action", c.baseURL, url.PathEscape(c.appID), url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ApplicationAccessKey", c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http request failed")
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("store API non-2xx response", "status", resp.StatusCode, "table", table, "action", action, "body", msg)
		span.SetStatus(codes.Error, "non-2xx response")
		return nil, fmt.Errorf("store API returned %d: %s", resp.StatusCode, msg)
	}

	out, err := decodeRows(body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("store.rows_received", len(out)))
	return out, nil
}

// decodeRows accepts a bare JSON array, a {"Rows": [...]} envelope or an
// empty body.
func decodeRows(body []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	decoder := func(v any) error {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		return dec.Decode(v)
	}

	if trimmed[0] == '[' {
		var rows []Row
		if err := decoder(&rows); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return rows, nil
	}

	var wrapped struct {
		Rows []Row `json:"Rows"`
	}
	if err := decoder(&wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return wrapped.Rows, nil
}
