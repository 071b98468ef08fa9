// Package app is the demo application: an editor whose toolbar points back at
// it, and a quarterly report that lives behind a split point.
package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	ioc "github.com/km-arc/go-async-ioc/framework/app"
	"github.com/km-arc/go-async-ioc/framework/container"
	gohttp "github.com/km-arc/go-async-ioc/framework/http"
	"github.com/km-arc/go-async-ioc/framework/manifest"
	"github.com/km-arc/go-async-ioc/framework/providers"
	"github.com/km-arc/go-async-ioc/framework/routing"
)

// ── Beans ─────────────────────────────────────────────────────────────────────

// Editor owns a toolbar. The toolbar needs the editor back, so each side holds
// a proxy that is patched in when the creational context finishes.
type Editor struct {
	Title   string
	Toolbar *container.Proxy[*Toolbar]
	ready   bool
}

// Ready reports whether the editor's initialization callback has run.
func (e *Editor) Ready() bool { return e.ready }

type Toolbar struct {
	Buttons []string
	Editor  *container.Proxy[*Editor]
}

// Report is expensive to build, so its provider is deferred.
type Report struct {
	Title string
	Rows  int
}

func newEditor(cb func(*Editor), cc *container.CreationalContext) {
	e := &Editor{Title: "untitled", Toolbar: container.NewProxy[*Toolbar](cc, container.Named("toolbar"))}
	cc.AddInitializationCallback(e, container.InitFunc(func(any) { e.ready = e.Toolbar.Resolved() }))
	cb(e)
}

func newToolbar(cb func(*Toolbar), cc *container.CreationalContext) {
	cb(&Toolbar{
		Buttons: []string{"bold", "italic", "save"},
		Editor:  container.NewProxy[*Editor](cc, container.Named("editor")),
	})
}

func newReport(*container.CreationalContext) *Report {
	return &Report{Title: "quarterly", Rows: 42}
}

// Catalog binds the factories config/beans.yaml refers to.
func Catalog() *manifest.Catalog {
	cat := manifest.NewCatalog()
	manifest.Bind(cat, "editor.editor", container.NewProvider(newEditor))
	manifest.Bind(cat, "editor.toolbar", container.NewProvider(newToolbar))
	manifest.Bind(cat, "reports.quarterly", container.Sync(newReport))
	return cat
}

// ── Routes ────────────────────────────────────────────────────────────────────

// RouteServiceProvider adds the demo routes once the router bean exists.
type RouteServiceProvider struct {
	container.BaseProvider
	App *ioc.Application
}

func (p *RouteServiceProvider) Register(*container.Manager) {}

func (p *RouteServiceProvider) Boot(m *container.Manager) {
	container.Lookup(m, func(r *routing.Router, err error) {
		if err != nil {
			p.App.Log.Error("demo routes not added", zap.Error(err))
			return
		}
		r.Get("/", p.home)
		r.Get("/editor", p.editor)
		r.Get("/report", p.report)
	}, container.Named(providers.RouterBean))
}

func (p *RouteServiceProvider) home(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).Success(map[string]any{
		"app":   p.App.Config.App.Name,
		"debug": p.App.IsDebug(),
	})
}

func (p *RouteServiceProvider) editor(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	e, err := ioc.Resolve[*Editor](r.Context(), p.App)
	if err != nil {
		res.ServerError(err.Error())
		return
	}
	tb := e.Toolbar.Get()
	res.Success(map[string]any{
		"title":         e.Title,
		"ready":         e.Ready(),
		"buttons":       tb.Buttons,
		"toolbar_knows": tb.Editor.Get() == e,
	})
}

func (p *RouteServiceProvider) report(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	rep, err := ioc.Resolve[*Report](r.Context(), p.App)
	if err != nil {
		res.ServerError(err.Error())
		return
	}
	res.Success(rep)
}

// Run adds the demo routes to application and serves until ctx ends.
func Run(ctx context.Context, application *ioc.Application) error {
	application.Register(&RouteServiceProvider{App: application})
	return application.Run(ctx)
}
