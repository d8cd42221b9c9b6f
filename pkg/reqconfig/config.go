// Package reqconfig holds the request configuration model shared by every layer of a decorated call:
// the configuration mapping itself, the deep clone and one-level merge rules, and the default
// configuration registries.
package reqconfig

import (
	"net/http"
	"strings"

	"github.com/spf13/cast"
)

// Well-known request configuration fields.
const (
	KeyURL     = "url"
	KeyMethod  = "method"
	KeyBaseURL = "baseURL"
	KeyHeaders = "headers"
	KeyParams  = "params"
	KeyData    = "data"
	KeyTimeout = "timeout"
)

// RequestConfig is a request configuration fragment. Recognized fields are listed above, any other
// field is passed through to the transport untouched.
type RequestConfig map[string]any

// URL returns the request path or absolute URL.
func (c RequestConfig) URL() string {
	s, _ := c[KeyURL].(string)
	return s
}

// Method returns the upper-cased HTTP verb, or an empty string when unset.
func (c RequestConfig) Method() string {
	s, _ := c[KeyMethod].(string)
	return strings.ToUpper(s)
}

// BaseURL returns the base URL that relative request URLs are resolved against.
func (c RequestConfig) BaseURL() string {
	s, _ := c[KeyBaseURL].(string)
	return s
}

// Headers returns the headers mapping, or nil when the field is absent or not a mapping.
func (c RequestConfig) Headers() map[string]any {
	return AsMapping(c[KeyHeaders])
}

// Params returns the query parameters mapping, or nil.
func (c RequestConfig) Params() map[string]any {
	return AsMapping(c[KeyParams])
}

// Data returns the request body value as stored.
func (c RequestConfig) Data() any {
	return c[KeyData]
}

// Timeout returns the timeout knob in milliseconds, or 0 when unset or not a number. Any integer or
// float type, json.Number and numeric strings are accepted.
func (c RequestConfig) Timeout() int64 {
	v := c[KeyTimeout]
	if _, ok := v.(bool); ok {
		return 0
	}
	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return ms
}

// HTTPHeader flattens the headers mapping into an http.Header.
func (c RequestConfig) HTTPHeader() http.Header {
	h := make(http.Header)
	for k, v := range c.Headers() {
		if v == nil {
			continue
		}
		h.Set(k, stringify(v))
	}
	return h
}

// IsBodyVerb reports whether requests with the given verb carry caller parameters in the body.
// The set is fixed: POST, PUT and PATCH.
func IsBodyVerb(verb string) bool {
	switch strings.ToUpper(verb) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// ParamsField returns the configuration field that receives caller parameters for verb.
func ParamsField(verb string) string {
	if IsBodyVerb(verb) {
		return KeyData
	}
	return KeyParams
}
