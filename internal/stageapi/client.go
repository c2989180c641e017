package stageapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Poster issues stage and operational calls. It is implemented by *Client and
// faked in tests.
type Poster interface {
	Post(ctx context.Context, endpoint, label string) (Response, error)
	PostJSON(ctx context.Context, endpoint string, body any) (Response, error)
}

// Ensure Client implements Poster at compile time.
var _ Poster = (*Client)(nil)

// LineSink receives streamed output lines as they arrive.
type LineSink interface {
	Chunk(label, line string)
}

// Response is the outcome of a call that reached the server. Body is nil when
// the text could not be parsed, in which case ParseErr says why.
type Response struct {
	HTTPStatus int
	Body       *Payload
	Raw        string
	ParseErr   error
}

// OK reports whether the HTTP status is in the 2xx range.
func (r Response) OK() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300
}

// Client talks to the mission backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	sink      LineSink
	logger    zerolog.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:8000"
	defaultUserAgent = "stagehand/0.1"
	readChunkSize    = 4096
)

// Option configures a Client.
type Option func(*Client)

// WithSink forwards streamed lines to sink.
func WithSink(sink LineSink) Option {
	return func(c *Client) { c.sink = sink }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a Client for the backend at baseURL. A bare host:port is
// accepted. Stage calls run to completion, so the HTTP client has no timeout.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// Post sends a parameterless POST and streams the response. Each complete,
// non-blank line is forwarded to the sink tagged with label as soon as it
// arrives; the whole body is parsed once the stream ends. The returned error
// is non-nil only for transport failures.
func (c *Client) Post(ctx context.Context, endpoint, label string) (Response, error) {
	if c == nil {
		return Response{}, errors.New("client is nil")
	}
	req, err := c.newRequest(ctx, endpoint, nil)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	var body bytes.Buffer
	var pending []byte
	buf := make([]byte, readChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			body.Write(buf[:n])
			pending = append(pending, buf[:n]...)
			pending = c.forwardLines(label, pending)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Response{HTTPStatus: resp.StatusCode}, errors.Wrap(rerr, "read response")
		}
	}
	if len(pending) > 0 {
		c.forwardLine(label, pending)
	}

	out := c.finish(resp.StatusCode, body.String())
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Int("bytes", body.Len()).
		Msg("stage call finished")
	return out, nil
}

// PostJSON sends body as JSON and reads the whole response without streaming.
// A nil body sends an empty POST.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (Response, error) {
	if c == nil {
		return Response{}, errors.New("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Response{}, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := c.newRequest(ctx, endpoint, reader)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, errors.Wrap(err, "execute request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{HTTPStatus: resp.StatusCode}, errors.Wrap(err, "read response")
	}
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Msg("operational call finished")
	return c.finish(resp.StatusCode, string(raw)), nil
}

func (c *Client) finish(status int, raw string) Response {
	raw = strings.ToValidUTF8(raw, "�")
	out := Response{HTTPStatus: status, Raw: raw}
	payload, err := parseStreamed(raw)
	if err != nil {
		out.ParseErr = err
		return out
	}
	out.Body = payload
	return out
}

// parseStreamed parses the whole body and, when progress text precedes the
// result, falls back to a JSON object on the final line.
func parseStreamed(raw string) (*Payload, error) {
	payload, err := ParsePayload(raw)
	if err == nil {
		return payload, nil
	}
	trimmed := strings.TrimRight(raw, " \t\r\n")
	idx := strings.LastIndexByte(trimmed, '\n')
	if idx < 0 {
		return nil, err
	}
	tail := strings.TrimSpace(trimmed[idx+1:])
	if !strings.HasPrefix(tail, "{") {
		return nil, err
	}
	if payload, terr := ParsePayload(tail); terr == nil {
		return payload, nil
	}
	return nil, err
}

func (c *Client) newRequest(ctx context.Context, endpoint string, body io.Reader) (*http.Request, error) {
	target := c.resolve(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return c.baseURL.String()
	}
	return c.baseURL.JoinPath(endpoint).String()
}

// forwardLines emits every complete line in pending and returns the unfinished
// remainder. Splitting on '\n' never cuts a multi-byte rune.
func (c *Client) forwardLines(label string, pending []byte) []byte {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			break
		}
		c.forwardLine(label, pending[:idx])
		pending = pending[idx+1:]
	}
	// Copy so the carried remainder does not pin the grown buffer.
	return append([]byte(nil), pending...)
}

func (c *Client) forwardLine(label string, line []byte) {
	if c.sink == nil {
		return
	}
	text := strings.TrimSpace(strings.ToValidUTF8(string(line), "�"))
	if text == "" {
		return
	}
	c.sink.Chunk(label, text)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base_url %q", raw)
	}
	if u.Host == "" {
		return nil, errors.Errorf("parse base_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
