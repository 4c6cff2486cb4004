/* Copyright (C) 2024, 2025 notebridge contributors
 *
 * This file is part of notebridge.
 *
 * notebridge is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * notebridge is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with notebridge.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package client provides interfaces for interacting with the note service
// web API and the data structures for responses
package client

import (
	stdctx "context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorf/notebridge/pkg/cli/context"
	"github.com/gorf/notebridge/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrNoAPIToken is an error for requests made without a configured token
var ErrNoAPIToken = errors.New("no api token found")

// ErrContentTypeMismatch is an error for an unexpected response content type
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the service
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error is transient and the request can
// be retried: timeouts, refused or dropped connections, 429 and 5xx.
func IsRetryable(err error) bool {
	cause := errors.Cause(err)

	if httpErr, ok := cause.(*HTTPError); ok {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(cause, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(cause, stdctx.DeadlineExceeded) {
		return true
	}

	msg := cause.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}

var contentTypeApplicationJSON = "application/json"
var contentTypeNone = ""

// requestOptions contains options for requests
type requestOptions struct {
	HTTPClient *http.Client
	// ExpectedContentType is the Content-Type that the client is expecting from the service
	ExpectedContentType *string
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100

	// reqTimeout bounds every individual request
	reqTimeout = 30 * time.Second
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(nctx context.NotebridgeCtx, options *requestOptions) *http.Client {
	if options != nil && options.HTTPClient != nil {
		return options.HTTPClient
	}

	if nctx.HTTPClient != nil {
		return nctx.HTTPClient
	}

	return &http.Client{}
}

func getExpectedContentType(options *requestOptions) string {
	if options != nil && options.ExpectedContentType != nil {
		return *options.ExpectedContentType
	}

	return contentTypeApplicationJSON
}

// getReq builds a request against the api endpoint. The token travels as a
// query parameter, which is how the service authenticates local clients.
func getReq(ctx stdctx.Context, nctx context.NotebridgeCtx, method, path, body string) (*http.Request, error) {
	u, err := url.Parse(fmt.Sprintf("%s%s", nctx.APIEndpoint, path))
	if err != nil {
		return nil, errors.Wrap(err, "parsing endpoint")
	}

	q := u.Query()
	q.Set("token", nctx.APIToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", nctx.Version)
	if body != "" {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error. It returns a boolean indicating
// if the response is an error, and a decoded error message.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "service responded with %d but client could not read the response body", res.StatusCode)
	}

	bodyStr := string(body)
	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(bodyStr, "\n"),
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	expected := getExpectedContentType(options)
	if expected == contentTypeNone {
		return nil
	}

	got := res.Header.Get("Content-Type")
	if got != expected && !strings.HasPrefix(got, expected+";") {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint and
// returns the full response body. Each call is bounded by reqTimeout.
func doReq(ctx stdctx.Context, nctx context.NotebridgeCtx, method, path, body string, options *requestOptions) ([]byte, error) {
	ctx, cancel := stdctx.WithTimeout(ctx, reqTimeout)
	defer cancel()

	req, err := getReq(ctx, nctx, method, path, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(nctx, options)
	res, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return nil, errors.Wrap(err, "service responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		return nil, errors.Wrap(err, "unexpected Content-Type")
	}

	ret, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading the response body")
	}

	return ret, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint
// with the configured token. The given path should include the preceding slash.
func doAuthorizedReq(ctx stdctx.Context, nctx context.NotebridgeCtx, method, path, body string, options *requestOptions) ([]byte, error) {
	if nctx.APIToken == "" {
		return nil, ErrNoAPIToken
	}

	return doReq(ctx, nctx, method, path, body, options)
}
