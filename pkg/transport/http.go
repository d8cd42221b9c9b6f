package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/brizzai/httpdeco/pkg/reqconfig"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds every request sent by a transport from NewHTTP.
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader is added to every outbound request that does not carry one.
	RequestIDHeader = "X-Request-Id"
)

// HTTP sends request configurations over net/http. Network failures, timeouts and non-2xx statuses
// are returned as *Error; for a status failure the error carries the response.
type HTTP struct {
	Client *http.Client
	// BaseURL is used when the configuration carries none.
	BaseURL string
	// Header is applied before the configuration's headers, which win over it.
	Header http.Header
	// Prepare runs last on every built request, typically to add credentials.
	Prepare func(*http.Request) error
	Logger  *zap.Logger
}

// NewHTTP returns an HTTP transport whose client times out after DefaultTimeout.
func NewHTTP() *HTTP {
	return &HTTP{Client: &http.Client{Timeout: DefaultTimeout}}
}

// Send dispatches cfg. A timeout knob in cfg bounds this request only.
func (t *HTTP) Send(ctx context.Context, cfg reqconfig.RequestConfig) (*Response, error) {
	if ms := cfg.Timeout(); ms > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}

	req, err := t.BuildRequest(ctx, cfg)
	if err != nil {
		return nil, &Error{Config: cfg, Err: err}
	}
	log := t.logger().With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	)
	log.Debug("request route")

	start := time.Now()
	resp, err := t.execute(req, cfg)
	if err != nil {
		log.Error("failed to execute request", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &Error{Config: cfg, Err: err}
	}
	log.Debug("response received", zap.Int("status", resp.Status), zap.Duration("elapsed", time.Since(start)))

	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		return nil, &Error{Config: cfg, Response: resp, Err: ErrStatus}
	}
	return resp, nil
}

func (t *HTTP) logger() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

func (t *HTTP) execute(httpReq *http.Request, cfg reqconfig.RequestConfig) (*Response, error) {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Headers:    resp.Header,
		Body:       bodyBytes,
		Data:       decodeBody(resp.Header.Get("Content-Type"), bodyBytes),
		Config:     cfg,
	}, nil
}

// BuildRequest builds the HTTP request for cfg without sending it. cfg is not modified.
func (t *HTTP) BuildRequest(ctx context.Context, cfg reqconfig.RequestConfig) (*http.Request, error) {
	method := cfg.Method()
	if method == "" {
		method = http.MethodGet
	}

	query := cloneMapping(cfg.Params())
	data := cfg.Data()

	// Path templates such as /items/{id} are filled from the params, or from a mapping body for
	// body verbs. Used keys are not sent again.
	source := query
	if reqconfig.IsBodyVerb(method) {
		if m := reqconfig.AsMapping(data); m != nil {
			source = cloneMapping(m)
			data = source
		}
	}
	path := expandPath(cfg.URL(), source)

	base := cfg.BaseURL()
	if base == "" {
		base = t.BaseURL
	}
	target, err := buildURL(base, path, query)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	body, contentType, err := createRequestBody(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, values := range t.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range cfg.HTTPHeader() {
		httpReq.Header.Del(key)
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if t.Prepare != nil {
		if err := t.Prepare(httpReq); err != nil {
			return nil, fmt.Errorf("failed to prepare request: %w", err)
		}
	}
	return httpReq, nil
}

// buildURL joins base and path unless path is already absolute, then appends the query.
func buildURL(base, path string, query map[string]any) (string, error) {
	full := path
	if base != "" && !isAbsoluteURL(path) {
		if path == "" {
			full = base
		} else {
			full = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
		}
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for key, value := range query {
			addQueryValue(q, key, value)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func addQueryValue(q url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
	case []string:
		for _, s := range v {
			q.Add(key, s)
		}
	case []any:
		for _, item := range v {
			if item != nil {
				q.Add(key, fmt.Sprint(item))
			}
		}
	default:
		q.Add(key, fmt.Sprint(v))
	}
}

// expandPath replaces {name} placeholders with values from params, deleting the used keys.
func expandPath(path string, params map[string]any) string {
	if !strings.Contains(path, "{") || len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		placeholder := "{" + key + "}"
		if !strings.Contains(path, placeholder) {
			continue
		}
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(fmt.Sprint(params[key])))
		delete(params, key)
	}
	return path
}

// createRequestBody encodes data. Bytes, strings and readers are sent as they are, anything else is
// sent as JSON.
func createRequestBody(data any) (io.Reader, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", nil
	case io.Reader:
		return v, "", nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(jsonData), "application/json", nil
}

// decodeBody returns the JSON value of a JSON body, or the body as a string.
func decodeBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

func cloneMapping(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
