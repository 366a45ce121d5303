// Package storeclient talks to the plant store over its REST interface. It
// turns the four logical operations (list, create, update, delete) into HTTP
// calls and normalizes every failure into one of the typed errors of this
// package.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgmu/planttracker/internal/messages"
	"github.com/mgmu/planttracker/internal/plants"
)

const (
	plantsPath  = "/plants"
	byIDPath    = plantsPath + "/id/"
	byNamePath  = plantsPath + "/name/"
	maxBodySize = 4 << 20

	// RequestIDHeader carries a per-request identifier for log correlation.
	RequestIDHeader = "X-Request-Id"
)

// Client is a plant store client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client for the store rooted at baseURL, for example
// "http://localhost:8000/api/v1". A nil httpClient uses a client with a 10s
// timeout; a nil logger uses slog.Default().
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storeclient: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("storeclient: base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("storeclient: base url %q has no host", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}, nil
}

// List returns every plant held by the store, in store order. Plants with
// neither an identifier nor a name cannot be addressed and are skipped.
func (c *Client) List(ctx context.Context) ([]plants.Plant, error) {
	status, body, err := c.do(ctx, "list plants", http.MethodGet, plantsPath, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &FetchError{StatusCode: status}
	}
	list, err := messages.DecodePlantList(body)
	if err != nil {
		return nil, &FetchError{StatusCode: status, Err: err}
	}

	out := make([]plants.Plant, 0, len(list))
	for _, jp := range list {
		if jp.InvalidID != "" {
			c.logger.Warn("ignoring unreadable plant identifier", "identifier", jp.InvalidID, "name", jp.Name)
		}
		p := jp.Plant()
		if !p.Addressable() {
			c.logger.Warn("skipping plant without identifier or name", "plant", p)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Create adds a plant. A name collision is reported as *DuplicateNameError,
// including the case where the store answers 2xx without a plant. A 2xx
// answer whose body cannot be read still counts as created; the returned
// plant then carries the draft's fields and no identifier.
func (c *Client) Create(ctx context.Context, d plants.Draft) (*plants.Plant, error) {
	status, body, err := c.do(ctx, "create plant", http.MethodPost, plantsPath, messages.FromDraft(d))
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		detail := errorDetail(body)
		if isDuplicateDetail(detail) {
			return nil, &DuplicateNameError{
				CreateError: CreateError{StatusCode: status, Message: detail},
				Name:        d.Name,
			}
		}
		return nil, &CreateError{StatusCode: status, Message: orDefault(detail, createFailed)}
	}
	if isEmptyBody(body) {
		return nil, &DuplicateNameError{
			CreateError: CreateError{StatusCode: status, Message: "store returned no plant"},
			Name:        d.Name,
		}
	}
	p, err := decodePlant(body)
	if err != nil {
		c.logger.Warn("unreadable create response", "status", status, "err", err)
		return fromDraft(d), nil
	}
	return p, nil
}

// UpdateByID replaces the fields of the plant with the given identifier.
func (c *Client) UpdateByID(ctx context.Context, id int64, d plants.Draft) (*plants.Plant, error) {
	return c.update(ctx, byIDPath+strconv.FormatInt(id, 10), d)
}

// UpdateByName replaces the fields of the plant with the given name. The name
// is sent as a single escaped path segment.
func (c *Client) UpdateByName(ctx context.Context, name string, d plants.Draft) (*plants.Plant, error) {
	return c.update(ctx, byNamePath+url.PathEscape(name), d)
}

func (c *Client) update(ctx context.Context, path string, d plants.Draft) (*plants.Plant, error) {
	status, body, err := c.do(ctx, "update plant", http.MethodPut, path, messages.FromDraft(d))
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &UpdateError{StatusCode: status, Message: orDefault(errorDetail(body), updateFailed)}
	}
	p, err := decodePlant(body)
	if err != nil {
		c.logger.Warn("unreadable update response", "status", status, "err", err)
		return fromDraft(d), nil
	}
	return p, nil
}

// DeleteByID removes the plant with the given identifier.
func (c *Client) DeleteByID(ctx context.Context, id int64) error {
	return c.delete(ctx, byIDPath+strconv.FormatInt(id, 10))
}

// DeleteByName removes the plant with the given name.
func (c *Client) DeleteByName(ctx context.Context, name string) error {
	return c.delete(ctx, byNamePath+url.PathEscape(name))
}

func (c *Client) delete(ctx context.Context, path string) error {
	status, _, err := c.do(ctx, "delete plant", http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return &DeleteError{StatusCode: status}
	}
	return nil
}

// do sends one request and reads the whole response body. Only transport
// failures are returned as errors; the status code is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("storeclient: %s: encode body: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("storeclient: %s: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("store request failed", "op", op, "method", method, "path", path, "request_id", reqID, "err", err)
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("store request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", reqID,
	)
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isEmptyBody(body []byte) bool {
	b := bytes.TrimSpace(body)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// errorDetail extracts the textual detail of an error body, or "".
func errorDetail(body []byte) string {
	var e messages.JsonError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return strings.TrimSpace(e.Message())
}

func decodePlant(body []byte) (*plants.Plant, error) {
	if isEmptyBody(body) {
		return nil, errors.New("empty body")
	}
	var jp messages.JsonPlant
	if err := json.Unmarshal(body, &jp); err != nil {
		return nil, err
	}
	p := jp.Plant()
	return &p, nil
}

// fromDraft stands in for a plant the store accepted but did not describe.
func fromDraft(d plants.Draft) *plants.Plant {
	return &plants.Plant{Name: d.Name, Description: d.Description, WateringSchedule: d.WateringSchedule}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
