package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/httpdeco/internal/config"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// HTTPAuthManager applies the endpoint's configured credentials to outbound requests
type HTTPAuthManager struct {
	authType   config.AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates a new HTTPAuthManager. A nil config disables authentication.
func NewHTTPAuthManager(serviceConfig *config.EndpointConfig) *HTTPAuthManager {
	if serviceConfig == nil {
		return &HTTPAuthManager{authType: config.AuthTypeNone}
	}
	return &HTTPAuthManager{
		authType:   serviceConfig.AuthType,
		authConfig: serviceConfig.AuthConfig,
	}
}

// ApplyAuth adds authentication to the request. Credentials already present on the request, set
// through the request configuration headers, are left alone.
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case config.AuthTypeNone, "":
		return nil
	case config.AuthTypeBasic:
		if req.Header.Get("Authorization") != "" {
			return nil
		}
		req.SetBasicAuth(a.authConfig["username"], a.authConfig["password"])
	case config.AuthTypeBearer:
		if req.Header.Get("Authorization") != "" {
			return nil
		}
		req.Header.Set("Authorization", "Bearer "+a.authConfig["token"])
	case config.AuthTypeAPIKey:
		key := a.authConfig["key"]
		name := a.authConfig["header"]
		if a.authConfig["in"] == "query" {
			if name == "" {
				name = "api_key"
			}
			q := req.URL.Query()
			q.Set(name, key)
			req.URL.RawQuery = q.Encode()
			return nil
		}
		if name == "" {
			name = "X-API-Key"
		}
		if req.Header.Get(name) == "" {
			req.Header.Set(name, key)
		}
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
