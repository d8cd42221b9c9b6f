package requester

import (
	"github.com/brizzai/httpdeco/pkg/transport"
	"go.uber.org/fx"
)

// Module provides the HTTP transport. The requester is exposed as a transport.Transport; callers
// that need the concrete type depend on *HTTPRequester.
var Module = fx.Options(
	fx.Provide(
		NewHTTPRequester,
		fx.Annotate(
			NewHTTPAuthManager,
			fx.As(new(AuthManager)),
		),
		func(r *HTTPRequester) transport.Transport { return r },
	),
)
