// Package bitrix provides a client for the Bitrix24 CRM REST API, covering
// the calls the reconciliation engine needs: paginated item listing, single
// item reads, field metadata, and single-record updates and deletes.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackwharrison/krcs-bitrix/pkg/errors"
	"github.com/jackwharrison/krcs-bitrix/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for CRM requests.
var DefaultHTTPTimeout = 30 * time.Second

// Filter narrows a list call server-side, e.g. Filter{"stageId": "DT1036_10:NEW"}.
// A nil filter returns every record of the entity type.
type Filter map[string]string

// Client calls the Bitrix24 REST API through an inbound webhook URL.
type Client struct {
	webhookURL string
	http       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given webhook URL
// (e.g. "https://portal.bitrix24.kg/rest/1/token").
func New(webhookURL string, opts ...Option) *Client {
	c := &Client{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		http:       &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common REST response wrapper.
type envelope struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

type listResult struct {
	Items []Record `json:"items"`
	Next  *int64   `json:"next"`
}

type itemResult struct {
	Item Record `json:"item"`
}

// List fetches one page of records starting at the given offset. It returns
// the page plus the next offset, or nil when the collection is exhausted.
// Callers that want the whole collection should use ListAll.
func (c *Client) List(ctx context.Context, entityType EntityTypeID, filter Filter, start int64) ([]Record, *int64, error) {
	const method = "crm.item.list"

	params := url.Values{}
	params.Set("entityTypeId", strconv.FormatInt(int64(entityType), 10))
	params.Set("start", strconv.FormatInt(start, 10))
	for field, value := range filter {
		params.Set("filter["+field+"]", value)
	}

	var result listResult
	if err := c.call(ctx, method, params, nil, &result); err != nil {
		return nil, nil, err
	}
	return result.Items, result.Next, nil
}

// ListAll fetches every record of the entity type matching the filter,
// following the start/next cursor until the server stops returning one.
// Page size is whatever the server chooses. A failed page aborts the whole
// fetch; retries are the caller's decision, not the fetcher's.
func (c *Client) ListAll(ctx context.Context, entityType EntityTypeID, filter Filter) ([]Record, error) {
	var all []Record
	var start int64

	for {
		items, next, err := c.List(ctx, entityType, filter, start)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if next == nil {
			break
		}
		start = *next
	}

	logging.Debug().
		Int64("entityTypeId", int64(entityType)).
		Int("records", len(all)).
		Msg("fetched collection")
	return all, nil
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, entityType EntityTypeID, id int64) (Record, error) {
	const method = "crm.item.get"

	params := url.Values{}
	params.Set("entityTypeId", strconv.FormatInt(int64(entityType), 10))
	params.Set("id", strconv.FormatInt(id, 10))

	var result itemResult
	if err := c.call(ctx, method, params, nil, &result); err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, errors.ErrNotFound
	}
	return result.Item, nil
}

// Update applies one field payload to one record. No batching, no retry:
// the caller decides what a failure means for the rest of its batch.
func (c *Client) Update(ctx context.Context, entityType EntityTypeID, id int64, fields map[string]any) error {
	const method = "crm.item.update"

	body := map[string]any{
		"entityTypeId": int64(entityType),
		"id":           id,
		"fields":       fields,
	}

	var result itemResult
	if err := c.call(ctx, method, nil, body, &result); err != nil {
		return &errors.UpdateError{EntityTypeID: int64(entityType), RecordID: id, Err: err}
	}
	if result.Item == nil {
		return &errors.UpdateError{
			EntityTypeID: int64(entityType),
			RecordID:     id,
			Err:          errors.New("response contained no item"),
		}
	}
	return nil
}

// Delete removes one record by id.
func (c *Client) Delete(ctx context.Context, entityType EntityTypeID, id int64) error {
	const method = "crm.item.delete"

	params := url.Values{}
	params.Set("entityTypeId", strconv.FormatInt(int64(entityType), 10))
	params.Set("id", strconv.FormatInt(id, 10))

	if err := c.call(ctx, method, params, nil, nil); err != nil {
		return &errors.UpdateError{EntityTypeID: int64(entityType), RecordID: id, Err: err}
	}
	return nil
}

// call performs one REST round trip: GET with query params, or POST with a
// JSON body when one is given. Non-2xx responses and REST-level error
// payloads become APIErrors.
func (c *Client) call(ctx context.Context, method string, params url.Values, body, out any) error {
	endpoint := c.webhookURL + "/" + method + ".json"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	httpMethod := http.MethodGet
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.WrapResource("encode", "request", method, err)
		}
		reader = bytes.NewReader(payload)
		httpMethod = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, reader)
	if err != nil {
		return errors.WrapResource("create", "request", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{Method: method, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.APIError{Method: method, Message: "read response body", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(data), 200),
		}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &errors.APIError{Method: method, Message: "malformed response", Err: err}
	}
	if env.Error != "" {
		msg := env.ErrorDescription
		if msg == "" {
			msg = env.Error
		}
		return &errors.APIError{Method: method, Message: msg}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.WrapParse("json", method+" result", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
