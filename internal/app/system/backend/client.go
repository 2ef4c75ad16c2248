// Package backend is the HTTP+JSON client for the matching service.
//
// Client implements coordinator.Backend. The service may be the colocated
// /api mount of this binary or a remote deployment; the client only sees
// the base URL.
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

	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxErrorBody limits how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger

	// Header is added to every request.
	Header http.Header
}

// Client talks to the matching service.
type Client struct {
	base   *url.URL
	http   *http.Client
	header http.Header
	log    *zap.Logger
}

// New validates the base URL and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url %q must be http or https", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q has no host", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{base: base, http: hc, header: opts.Header.Clone(), log: logger}, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

type pairBody struct {
	ClientID int64 `json:"client_id"`
	HelperID int64 `json:"helper_id"`
}

type clientsResponse struct {
	Clients []models.Person `json:"clients"`
	Total   int             `json:"total"`
}

type helpersResponse struct {
	PotentialHelpers []models.Person `json:"potentialHelpers"`
	Total            int             `json:"total"`
}

type matchingsResponse struct {
	Matchings []models.Pairing `json:"matchings"`
	Total     int              `json:"total"`
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// ListUnmatchedClients returns one page of clients without a pairing.
func (c *Client) ListUnmatchedClients(ctx context.Context, page, size int) (paging.Page[models.Person], error) {
	var out clientsResponse
	if err := c.do(ctx, http.MethodGet, "/matchings/unmatched/clients", pageQuery(page, size), nil, &out); err != nil {
		return paging.Page[models.Person]{}, err
	}
	return paging.Page[models.Person]{Items: out.Clients, Total: out.Total}, nil
}

// ListPotentialHelpers returns one page of helpers that may be paired with clientID.
func (c *Client) ListPotentialHelpers(ctx context.Context, clientID int64, page, size int) (paging.Page[models.Person], error) {
	var out helpersResponse
	path := "/matchings/potential/" + strconv.FormatInt(clientID, 10)
	if err := c.do(ctx, http.MethodGet, path, pageQuery(page, size), nil, &out); err != nil {
		return paging.Page[models.Person]{}, err
	}
	return paging.Page[models.Person]{Items: out.PotentialHelpers, Total: out.Total}, nil
}

// ListMatchedPairs returns one page of existing pairings.
func (c *Client) ListMatchedPairs(ctx context.Context, page, size int) (paging.Page[models.Pairing], error) {
	var out matchingsResponse
	if err := c.do(ctx, http.MethodGet, "/matchings/users", pageQuery(page, size), nil, &out); err != nil {
		return paging.Page[models.Pairing]{}, err
	}
	return paging.Page[models.Pairing]{Items: out.Matchings, Total: out.Total}, nil
}

// Assign pairs helperID with clientID.
func (c *Client) Assign(ctx context.Context, clientID, helperID int64) error {
	return c.do(ctx, http.MethodPost, "/matchings/assign", nil, pairBody{clientID, helperID}, nil)
}

// Unassign removes the pairing of clientID and helperID.
func (c *Client) Unassign(ctx context.Context, clientID, helperID int64) error {
	return c.do(ctx, http.MethodPost, "/matchings/unassign", nil, pairBody{clientID, helperID}, nil)
}

// do sends one request. in is encoded as the JSON body when non-nil and a
// 2xx response body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("backend: build %s %s: %w", method, path, err)
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls {"error": "..."} out of a failed response, falling
// back to the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
