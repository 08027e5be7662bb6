package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://api-transporte-98xe.onrender.com"
	DefaultTimeout = 20 * time.Second

	maxBodyBytes = 8 << 20
)

// Client talks to the REST API on behalf of one session.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	validate *validator.Validate

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every authenticated request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse api base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("api base url must be http or https, got %q", baseURL)
	}

	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = DefaultTimeout
	c := &Client{
		baseURL:  u,
		http:     hc,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token, e.g. after a login or when the API
// issues a renewed one.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// request describes one API call.
type request struct {
	method   string
	path     string
	body     any
	public   bool
	fallback string
	// statusErrs maps response codes to the sentinel wrapped in Error.
	statusErrs map[int]error
}

var defaultStatusErrs = map[int]error{
	http.StatusUnauthorized: ErrSessionExpired,
	http.StatusForbidden:    ErrForbidden,
}

// do performs r and returns the raw response body of a 2xx answer.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL.String()+r.path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.public {
		token := c.Token()
		if token == "" {
			return nil, ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", r.method, r.path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s %s", r.method, r.path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErrs := r.statusErrs
		if statusErrs == nil {
			statusErrs = defaultStatusErrs
		}
		return nil, newError(resp.StatusCode, data, statusErrs[resp.StatusCode], r.fallback)
	}
	return data, nil
}

// doJSON performs r and decodes a JSON object answer into out.
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, out), "decode %s %s", r.method, r.path)
}

// decodeList accepts a bare JSON array or a {"content": [...]} envelope.
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	raw := data
	if data[0] == '{' {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, errors.Wrap(err, "decode list envelope")
		}
		content, ok := env["content"]
		content = bytes.TrimSpace(content)
		if !ok || len(content) == 0 || content[0] != '[' {
			return nil, ErrUnexpectedShape
		}
		raw = content
	} else if data[0] != '[' {
		return nil, ErrUnexpectedShape
	}

	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decode list")
	}
	return out, nil
}

func listOf[T any](ctx context.Context, c *Client, r request) ([]T, error) {
	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// check validates in and reports failures as an ErrInvalidInput Error.
func (c *Client) check(in any) error {
	err := c.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate input")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &Error{Message: joinFieldErrors(fields), Fields: fields, kind: ErrInvalidInput}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "eqfield":
		return "passwords do not match"
	default:
		return fe.Field() + " is invalid"
	}
}

func invalid(field, msg string) error {
	fields := map[string]string{field: msg}
	return &Error{Message: joinFieldErrors(fields), Fields: fields, kind: ErrInvalidInput}
}
