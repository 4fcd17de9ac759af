// Package module wires publishing into the API using modkit
package module

import (
	"net/http"

	"noterelay/internal/core/cookie"
	modkit "noterelay/internal/modkit"
	"noterelay/internal/modkit/httpkit"
	str "noterelay/internal/platform/strings"
	publishhttp "noterelay/internal/services/api/publish/http"
	publishrepo "noterelay/internal/services/api/publish/repo"
	publishsvc "noterelay/internal/services/api/publish/service"
)

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc publishsvc.Service
}

// New constructs a publish module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("publish"), modkit.WithPrefix("/publish")}, opts...)...)

	o := FromConfig(deps.Cfg)
	var audit publishrepo.Repo
	if o.Audit && deps.PG != nil {
		audit = publishrepo.NewPG().Bind(deps.PG)
	}
	svc := publishsvc.New(publishsvc.Config{
		SignBaseURL:  o.SignServerURL,
		CookiePolicy: cookie.PolicyFromName(o.CookiePolicy),
		MaxImages:    o.MaxImages,
		SignTimeout:  o.SignTimeout,
		ImageTimeout: o.ImageTimeout,
		ImageDir:     o.ImageDir,
		MaxAttempts:  o.MaxAttempts,
		BackoffBase:  o.BackoffBase,
	}, audit)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = adaptPublishPort{svc: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		publishhttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }
