package httpds

import (
	"context"
	"fmt"
	"io"
)

// Remote is a data source backed by an http(s) URL. Open performs one
// blocking GET and hands the response body to the caller as the input
// stream; the fetch is not repeated mid-load.
type Remote struct {
	client *Client
	url    string
}

// NewRemote returns a Remote source fetching url through client. The
// client's retry policy applies to the fetch.
func NewRemote(client *Client, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Open issues the GET and returns the response body. Any non-2xx status is
// a fetch failure; the body is closed before returning the error.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", r.url, resp.Status)
	}
	return resp.Body, nil
}

// URL returns the configured remote URL.
func (r *Remote) URL() string { return r.url }
