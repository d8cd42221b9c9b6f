package requester

import (
	"net/http"
	"time"

	"github.com/brizzai/httpdeco/internal/config"
	"github.com/brizzai/httpdeco/pkg/transport"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HTTPRequester is the configured HTTP transport: the endpoint's base URL, headers, timeout and
// credentials applied to a transport.HTTP.
type HTTPRequester struct {
	*transport.HTTP
}

type HTTPRequesterParams struct {
	fx.In

	ServiceConfig *config.EndpointConfig `optional:"true"`
	AuthManager   AuthManager            `optional:"true"`
	Logger        *zap.Logger            `optional:"true"`
}

// NewHTTPRequester creates a new HTTPRequester. Every parameter is optional; when no auth manager is
// given one is derived from the endpoint config.
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	h := transport.NewHTTP()
	h.Logger = params.Logger

	if svc := params.ServiceConfig; svc != nil {
		if svc.Timeout != "" {
			if d, err := time.ParseDuration(svc.Timeout); err == nil && d > 0 {
				h.Client.Timeout = d
			}
		}
		h.BaseURL = svc.BaseURL
		if len(svc.Headers) > 0 {
			h.Header = make(http.Header, len(svc.Headers))
			for key, value := range svc.Headers {
				h.Header.Set(key, value)
			}
		}
	}

	authMgr := params.AuthManager
	if authMgr == nil {
		authMgr = NewHTTPAuthManager(params.ServiceConfig)
	}
	h.Prepare = authMgr.ApplyAuth

	return &HTTPRequester{HTTP: h}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.Client.Timeout = timeout
}
