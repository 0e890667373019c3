// Package queryapi implements the thin client for the remote query
// endpoint. A statement is POSTed as JSON ({"sql": "..."}) and the endpoint
// answers with column metadata, row data, and an optional error object. The
// loader only ever inspects whether a call errored and, for existence
// checks, whether columns and rows came back non-empty.
package queryapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bendload/internal/datasource/httpds"
)

// ErrStatement marks a statement the endpoint accepted over HTTP but
// rejected during execution. Callers branch with errors.Is.
var ErrStatement = errors.New("statement failed")

// Column describes one result column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ServerError is the error object the endpoint embeds in a response body.
type ServerError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result is the decoded response of one statement execution. Columns and
// Data may both be empty for DDL/DML statements.
type Result struct {
	Columns []Column       `json:"columns"`
	Data    [][]string     `json:"data"`
	State   string         `json:"state"`
	Err     *ServerError   `json:"error"`
	Stats   map[string]any `json:"stats"`
}

// HasRows reports whether the result carries a non-empty row set together
// with column metadata. This is the existence-check predicate.
func (r *Result) HasRows() bool {
	return r != nil && len(r.Columns) > 0 && len(r.Data) > 0
}

// Client executes statements against a single resolved endpoint URL. It is
// read-only after construction and safe to share across the whole load.
type Client struct {
	http     *httpds.Client
	endpoint string
}

// New returns a Client bound to endpoint. The httpds client carries the
// transport policy; statement dispatch is expected to run with retries off.
func New(h *httpds.Client, endpoint string) *Client {
	return &Client{http: h, endpoint: endpoint}
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

type statementRequest struct {
	SQL string `json:"sql"`
}

// Execute submits one statement and decodes the structured response.
//
// Transport failures and non-2xx statuses are returned as plain errors.
// A well-formed response whose error object is set returns the decoded
// Result alongside an error wrapping ErrStatement.
func (c *Client) Execute(ctx context.Context, stmt string) (*Result, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("queryapi: endpoint not configured")
	}

	body, err := json.Marshal(statementRequest{SQL: stmt})
	if err != nil {
		return nil, fmt.Errorf("queryapi: encode statement: %w", err)
	}

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")

	resp, err := c.http.Post(ctx, c.endpoint, body, hdr)
	if err != nil {
		return nil, fmt.Errorf("queryapi: post statement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the diagnostic; the endpoint tends
		// to put the reason there on bad requests.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("queryapi: status %s: %s", resp.Status, string(snippet))
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("queryapi: decode response: %w", err)
	}
	if res.Err != nil {
		return &res, fmt.Errorf("%w: code %d: %s", ErrStatement, res.Err.Code, res.Err.Message)
	}
	return &res, nil
}
