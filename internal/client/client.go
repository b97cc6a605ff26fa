package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "isr-cache-client/1.0"

// responseSchema is the body contract of the endpoint.
const responseSchema = `{
	"type": "object",
	"required": ["uuid"],
	"properties": {
		"uuid": {
			"type": "string",
			"pattern": "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$"
		}
	}
}`

// HTTPError captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// ContractError means the endpoint answered 200 with a body that does not
// match the expected shape.
type ContractError struct {
	Problems []string
}

func (e *ContractError) Error() string {
	return "response does not match contract: " + strings.Join(e.Problems, "; ")
}

// Response is everything the display needs from one round trip.
type Response struct {
	UUID       string
	Body       string
	Headers    string
	Header     http.Header
	StatusCode int
}

// userAgentRoundTripper adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

type Client struct {
	url    string
	http   *http.Client
	schema *gojsonschema.Schema
}

// NewClient returns a Client fetching baseURL+route. base may be nil; its
// transport is wrapped to set the User-Agent and a 10s timeout is applied
// when none is set.
func NewClient(baseURL, route string, base *http.Client) (*Client, error) {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	base.Transport = &userAgentRoundTripper{
		Wrapped:   base.Transport,
		UserAgent: DefaultUserAgent,
	}
	if base.Timeout == 0 {
		base.Timeout = 10 * time.Second
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}

	return &Client{
		url:    strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(route, "/"),
		http:   base,
		schema: schema,
	}, nil
}

// URL is the endpoint the client fetches.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET and returns the body and flattened headers together.
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := c.validate(body); err != nil {
		return nil, err
	}

	var payload struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return nil, fmt.Errorf("format body: %w", err)
	}

	return &Response{
		UUID:       payload.UUID,
		Body:       strings.TrimSpace(pretty.String()),
		Headers:    FormatHeaders(resp.Header),
		Header:     resp.Header.Clone(),
		StatusCode: resp.StatusCode,
	}, nil
}

func (c *Client) validate(body []byte) error {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ContractError{Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ContractError{Problems: problems}
}

// FormatHeaders flattens headers into "key: value" lines, keys lower-cased
// and sorted, repeated values joined with ", ".
func FormatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToLower(k), strings.Join(h[k], ", ")))
	}
	return strings.Join(lines, "\n")
}
