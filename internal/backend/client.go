// Package backend is the typed client of the thesis backend REST API. Every
// method performs exactly one HTTP call and never retries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 15 * time.Second
	maxBodyBytes    = 4 << 20
	fallbackMessage = "Error en la petición"
	requestIDHeader = "X-Request-ID"
)

// Observer receives the outcome of every backend call. Status is 0 when no
// response was received.
type Observer interface {
	ObserveBackendCall(op string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

// Client talks to the thesis backend.
type Client struct {
	baseURL  *url.URL
	timeout  time.Duration
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New validates the base URL and builds a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base url %q must be http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  base,
		timeout:  timeout,
		http:     httpClient,
		observer: cfg.Observer,
		logger:   logger,
	}, nil
}

type requestIDKey struct{}

// WithRequestID tags outgoing calls made with ctx with the portal request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// call describes one backend operation.
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     interface{}
	fallback string
}

// do performs the call and decodes a 2xx body into out. It returns the HTTP
// status so callers can special-case codes such as 404.
func (c *Client) do(ctx context.Context, cl call, out interface{}) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// cl.path carries escaped segments; keep that form on the wire.
	rawPath := c.baseURL.EscapedPath() + cl.path
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid path %q: %w", cl.op, rawPath, err)
	}
	target := *c.baseURL
	target.Path, target.RawPath = decoded, rawPath
	if len(cl.query) > 0 {
		target.RawQuery = cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		req.Header.Set(requestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(cl.op, 0, start)
		c.logger.Warn("backend call failed", zap.String("op", cl.op), zap.Error(err))
		return 0, &RequestError{Op: cl.op, Message: fallbackFor(cl), Err: err}
	}
	defer resp.Body.Close()
	c.observe(cl.op, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, &RequestError{Op: cl.op, Status: resp.StatusCode, Message: fallbackFor(cl), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &RequestError{
			Op:      cl.op,
			Status:  resp.StatusCode,
			Message: messageFrom(data, fallbackFor(cl)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &RequestError{
			Op:      cl.op,
			Status:  resp.StatusCode,
			Message: fallbackFor(cl),
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(op, status, time.Since(start))
}

func fallbackFor(cl call) string {
	if cl.fallback != "" {
		return cl.fallback
	}
	return fallbackMessage
}

// messageFrom extracts the backend-provided error message. The backend answers
// errors as {"message"}, {"error"}, {"mensaje"} or a plain text body.
func messageFrom(body []byte, fallback string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback
	}
	if trimmed[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
			Mensaje string `json:"mensaje"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			for _, candidate := range []string{payload.Message, payload.Error, payload.Mensaje} {
				if candidate != "" {
					return candidate
				}
			}
		}
		return fallback
	}
	if trimmed[0] == '<' || len(trimmed) > 512 {
		return fallback
	}
	return string(trimmed)
}

func pathID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}

// IsStatus reports whether err is a RequestError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Status == status
}

// RequestIDFrom returns the request id attached with WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
