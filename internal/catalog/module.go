package catalog

import "go.uber.org/fx"

// Module provides the catalog service. It expects a *Catalog, an *httpdeco.Client and a *zap.Logger.
var Module = fx.Module("catalog",
	fx.Provide(
		NewService,
	),
)
