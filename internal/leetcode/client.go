package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Khan/genqlient/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const (
	DefaultEndpoint  = "https://leetcode.com/graphql/"
	DefaultOrigin    = "https://leetcode.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultTimeout   = 20 * time.Second
)

// Transport sends one GraphQL document to an endpoint. Implementations do
// not cache and do not retry.
type Transport interface {
	Send(ctx context.Context, req Request, sess *Session) (*RawResponse, error)
}

type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables"`
}

// RawResponse is the undecoded GraphQL envelope. Errors holds the GraphQL
// level errors array, which the upstream uses even on HTTP 200.
type RawResponse struct {
	Data    json.RawMessage `json:"data"`
	Errors  gqlerror.List   `json:"errors,omitempty"`
	Cookies []*http.Cookie  `json:"-"`
}

// ErrorMessages returns the messages of the GraphQL errors array.
func (r *RawResponse) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

type Options struct {
	Endpoint string
	// Origin is sent as Origin and Referer. Leave empty when the endpoint is
	// our own gateway rather than the upstream.
	Origin     string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	Endpoint string
	timeout  time.Duration
	gql      graphql.Client
}

func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	d := &doer{
		client:    hc,
		origin:    strings.TrimSuffix(opts.Origin, "/"),
		userAgent: opts.UserAgent,
	}
	return &Client{
		Endpoint: opts.Endpoint,
		timeout:  opts.Timeout,
		gql:      graphql.NewClient(opts.Endpoint, d),
	}
}

func (c *Client) Send(ctx context.Context, req Request, sess *Session) (*RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tr := &roundTrip{}
	ctx = context.WithValue(ctx, roundTripKey{}, tr)
	ctx = WithSession(ctx, sess)

	var data json.RawMessage
	resp := &graphql.Response{Data: &data}
	err := c.gql.MakeRequest(ctx, &graphql.Request{
		Query:     req.Query,
		Variables: req.Variables,
		OpName:    req.OperationName,
	}, resp)

	out := &RawResponse{Data: data, Errors: resp.Errors, Cookies: tr.cookies}
	if err == nil {
		return out, nil
	}

	var list gqlerror.List
	if errors.As(err, &list) {
		out.Errors = list
		return out, nil
	}
	// a deadline that fires mid-body is still a timeout, not a bad payload
	if tr.delivered && !isTimeout(ctx, err) {
		return nil, &SchemaError{Field: "response", Err: err}
	}
	return nil, transportError(ctx, err)
}

type roundTripKey struct{}

// roundTrip records what the doer saw so Send can tell a decode failure
// from a transport failure and hand Set-Cookie headers back to the caller.
type roundTrip struct {
	cookies   []*http.Cookie
	delivered bool
}

type doer struct {
	client    *http.Client
	origin    string
	userAgent string
}

func (d *doer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", d.userAgent)
	if d.origin != "" {
		req.Header.Set("Origin", d.origin)
		req.Header.Set("Referer", d.origin+"/")
	}
	if s := SessionFrom(req.Context()); s != nil {
		s.apply(req)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	tr, _ := req.Context().Value(roundTripKey{}).(*roundTrip)
	if tr != nil {
		tr.cookies = resp.Cookies()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	if tr != nil {
		tr.delivered = true
	}
	return resp, nil
}
