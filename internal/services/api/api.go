// Package api provides the HTTP API for the application
package api

import (
	"time"

	"noterelay/internal/platform/config"
	"noterelay/internal/platform/logger"
	phttp "noterelay/internal/platform/net/http"
	"noterelay/internal/platform/store"

	"noterelay/internal/modkit"
	"noterelay/internal/modkit/httpkit"
	"noterelay/internal/modkit/module"
	"noterelay/internal/modkit/swaggerkit"

	metamod "noterelay/internal/services/api/meta/module"
	publishmod "noterelay/internal/services/api/publish/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool

	// RequestTimeout bounds every request; publish holds connections
	// open across platform retries so keep this above the worst case
	RequestTimeout time.Duration
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
	}

	mods := []module.Module{
		metamod.New(deps),
		publishmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.RequestTimeout), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
