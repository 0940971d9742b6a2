/*
 * Copyright 2024 The in-n-out Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package innout

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Client is the entrance for interacting with the in-n-out service.
//
// A Client holds no per-request state and is safe for concurrent use.
type Client struct {
	config *Config
	http   HTTPClient
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used to reach the service.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger. A nil logger falls back to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new client.
func NewClient(config *Config, opts ...Option) *Client {
	c := &Client{
		config: &Config{Endpoint: strings.TrimRight(config.Endpoint, "/")},
		http:   NewHTTPClient(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the client.
//
// You don't typically need to call this as the garbage collector will release
// the resources when the client is no longer referenced. However, it can be
// useful to call this if you want to release the resources immediately.
func (c *Client) Close() {
	c.http.Close()
}

// HealthCheck reports whether the service answers /health_check with a 2xx status.
//
// Any other status yields false with a nil error. A transport failure yields
// false with an error wrapping ErrConnectionFailure; a cancelled context is
// returned as is.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	u, err := c.endpoint("/health_check")
	if err != nil {
		return false, err
	}

	resp, err := c.http.Get(ctx, u)
	if err != nil {
		if ctx.Err() == nil && isConnectionError(err) {
			return false, fmt.Errorf("%w: %w", ErrConnectionFailure, err)
		}
		return false, err
	}
	defer sneakyBodyClose(resp.Body)

	c.logger.Debug("health check", "status", resp.StatusCode)
	return isStatusCodeValid(resp.StatusCode), nil
}

func (c *Client) endpoint(path string) (*url.URL, error) {
	return url.Parse(c.config.Endpoint + path)
}
