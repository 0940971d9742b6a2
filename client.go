package innout

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// HTTPClient is the interface for HTTP client.
type HTTPClient interface {
	// Get sends a GET request to the in-n-out service.
	Get(context.Context, *url.URL) (*http.Response, error)
	// Post sends a POST request to the in-n-out service. The header carries
	// Content-Type and any other request headers.
	Post(context.Context, *url.URL, http.Header, []byte) (*http.Response, error)
	// Close releases idle connections.
	Close()
}

type httpClient struct {
	client *http.Client
}

// NewHTTPClient creates a new internal HTTP client.
func NewHTTPClient() HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &httpClient{
		client: &http.Client{Transport: transport},
	}
}

// Ensure httpClient implements HTTPClient.
var _ HTTPClient = (*httpClient)(nil)

func (c *httpClient) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) Post(ctx context.Context, u *url.URL, header http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) Close() {
	c.client.CloseIdleConnections()
}
