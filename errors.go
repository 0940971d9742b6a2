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
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"syscall"
)

var (
	// ErrInvalidArgument is returned when a request is missing a required value,
	// e.g., a DataFrame payload without a content type.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotImplemented is returned for DataFrame content types other than parquet.
	ErrNotImplemented = errors.New("not implemented")
	// ErrConnectionFailure is returned when the in-n-out service cannot be reached.
	ErrConnectionFailure = errors.New("connection failure")
)

// RemoteError represents a non-2xx response from the in-n-out service.
type RemoteError struct {
	StatusCode int
	Text       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Text)
}

// isStatusCodeValid reports whether the status code is in the 2xx class.
func isStatusCodeValid(statusCode int) bool {
	s := strconv.Itoa(statusCode)
	return len(s) > 0 && s[0] == '2'
}

func checkStatusCode(statusCode int, text string) error {
	if isStatusCodeValid(statusCode) {
		return nil
	}
	return &RemoteError{StatusCode: statusCode, Text: text}
}

// isConnectionError reports whether err is a network-level failure to reach the
// service, as opposed to cancellation or a malformed request. A connection the
// server drops before responding counts as a failure to reach it.
func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// sneakyBodyClose closes the body and ignores the error.
// This is useful to close the HTTP response body when we don't care about the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
