// Package debug serves read-only introspection routes over a bean manager.
// Handlers run on HTTP goroutines; anything that touches a creational
// context is posted to the loop and awaited.
package debug

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-async-ioc/framework/container"
	fhttp "github.com/km-arc/go-async-ioc/framework/http"
	"github.com/km-arc/go-async-ioc/framework/http/validation"
	"github.com/km-arc/go-async-ioc/framework/loop"
	"github.com/km-arc/go-async-ioc/framework/routing"
)

// Handler exposes the bean manager over HTTP.
type Handler struct {
	manager *container.Manager
	loop    loop.Loop
	log     *zap.Logger
	timeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout bounds how long a request waits on the loop. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithLogger sets the handler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler returns a Handler for m whose instantiations run on lp.
func NewHandler(m *container.Manager, lp loop.Loop, opts ...Option) *Handler {
	h := &Handler{manager: m, loop: lp, log: zap.NewNop(), timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the introspection routes on r.
//
//	GET /healthz
//	GET /beans?scope=singleton
//	GET /beans/{name}?q=@Primary
//	GET /beans/{name}/context
func (h *Handler) Routes(r *routing.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/beans", h.ListBeans)
	r.Get("/beans/{name}", h.ShowBean)
	r.Get("/beans/{name}/context", h.ShowContext)
}

// ── views ────────────────────────────────────────────────────────────────────

type beanView struct {
	Name       string   `json:"name,omitempty"`
	Type       string   `json:"type"`
	Scope      string   `json:"scope"`
	Qualifiers []string `json:"qualifiers"`
	Live       bool     `json:"live"`
}

type instanceView struct {
	Bean     beanView `json:"bean"`
	Instance string   `json:"instance"`
	Context  string   `json:"context,omitempty"`
}

type contextView struct {
	ID           string   `json:"id"`
	Scope        string   `json:"scope"`
	Comment      string   `json:"comment"`
	Phase        string   `json:"phase"`
	Pending      int      `json:"pending"`
	Created      int      `json:"created"`
	Unresolved   []string `json:"unresolved"`
	PendingInits int      `json:"pending_inits"`
}

func viewOf(def container.BeanDef) beanView {
	quals := make([]string, 0, len(def.Qualifiers()))
	for _, q := range def.Qualifiers() {
		quals = append(quals, string(q))
	}
	_, live := def.Instance()
	return beanView{
		Name:       def.Name(),
		Type:       def.Type().String(),
		Scope:      def.Scope().String(),
		Qualifiers: quals,
		Live:       live,
	}
}

func snapshot(cc *container.CreationalContext) contextView {
	unresolved := make([]string, 0)
	for _, ref := range cc.UnresolvedRefs() {
		unresolved = append(unresolved, ref.String())
	}
	beans := cc.BeanContext()
	return contextView{
		ID:           cc.ID().String(),
		Scope:        cc.Scope().String(),
		Comment:      beans.Comment(),
		Phase:        beans.Phase().String(),
		Pending:      beans.Pending(),
		Created:      len(cc.CreatedInstances()),
		Unresolved:   unresolved,
		PendingInits: cc.PendingInitializations(),
	}
}

// ── handlers ─────────────────────────────────────────────────────────────────

// Health reports that the process is serving and how many beans are defined.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	fhttp.NewResponse(w).Success(map[string]any{
		"status": "ok",
		"beans":  len(h.manager.Beans()),
	})
}

// ListBeans lists every definition in registration order, optionally only
// those of one scope.
func (h *Handler) ListBeans(w http.ResponseWriter, r *http.Request) {
	req, res := fhttp.NewRequest(r), fhttp.NewResponse(w)

	filter := req.Query("scope")
	if filter != "" {
		v := validation.Make(map[string]string{"scope": filter}, validation.Rules{"scope": "in:singleton,dependent"})
		if v.Fails() {
			res.ValidationError(v.Errors())
			return
		}
	}

	out := make([]beanView, 0)
	for _, def := range h.manager.Beans() {
		if filter != "" && def.Scope().String() != filter {
			continue
		}
		out = append(out, viewOf(def))
	}
	res.Success(out)
}

// ShowBean instantiates the named bean and describes the instance. Every q
// parameter must be among the bean's qualifiers. A dependent instance is
// destroyed again once described.
func (h *Handler) ShowBean(w http.ResponseWriter, r *http.Request) {
	req, res := fhttp.NewRequest(r), fhttp.NewResponse(w)

	def, ok := h.find(req, res)
	if !ok {
		return
	}
	inst, err := h.instantiate(r.Context(), def)
	if err != nil {
		h.fail(req, res, def, err)
		return
	}
	defer h.release(r.Context(), def, inst)

	view := instanceView{Bean: viewOf(def), Instance: fmt.Sprintf("%v", inst)}
	if cc, ok := h.manager.ContextOf(inst); ok {
		view.Context = cc.ID().String()
	}
	res.Success(view)
}

// ShowContext describes the creational context that owns the named bean's
// instance. As with ShowBean, a dependent instance does not outlive the
// request.
func (h *Handler) ShowContext(w http.ResponseWriter, r *http.Request) {
	req, res := fhttp.NewRequest(r), fhttp.NewResponse(w)

	def, ok := h.find(req, res)
	if !ok {
		return
	}
	inst, err := h.instantiate(r.Context(), def)
	if err != nil {
		h.fail(req, res, def, err)
		return
	}
	defer h.release(r.Context(), def, inst)
	cc, ok := h.manager.ContextOf(inst)
	if !ok {
		res.NotFound("No creational context is tracking " + strconv.Quote(def.Name()) + ".")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	view, err := container.Await(ctx, h.loop, func(done func(contextView, error)) {
		done(snapshot(cc), nil)
	})
	if err != nil {
		h.fail(req, res, def, err)
		return
	}
	res.Success(view)
}

func (h *Handler) find(req *fhttp.Request, res *fhttp.Response) (container.BeanDef, bool) {
	name := req.RouteParam("name")
	quals := req.QueryAll("q")

	data, rules := map[string]string{}, validation.Rules{}
	for i, q := range quals {
		key := "q." + strconv.Itoa(i)
		data[key], rules[key] = q, `regex:^@[A-Za-z][A-Za-z0-9_()]*$`
	}
	if v := validation.Make(data, rules); v.Fails() {
		res.ValidationError(v.Errors())
		return nil, false
	}

	def, ok := h.manager.BeanNamed(name)
	if !ok {
		res.NotFound("No bean named " + strconv.Quote(name) + ".")
		return nil, false
	}
	have := def.Qualifiers()
	for _, q := range quals {
		if !slices.Contains(have, container.Qualifier(q)) {
			res.NotFound("Bean " + strconv.Quote(name) + " is not qualified " + q + ".")
			return nil, false
		}
	}
	return def, true
}

func (h *Handler) instantiate(ctx context.Context, def container.BeanDef) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return container.Await(ctx, h.loop, func(done func(any, error)) {
		h.manager.Instantiate(def, done)
	})
}

// release destroys an instance of a non-singleton bean created for one request,
// so the bean manager stops tracking it.
func (h *Handler) release(ctx context.Context, def container.BeanDef, inst any) {
	if def.Scope() == container.Singleton {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()
	_, err := container.Await(ctx, h.loop, func(done func(bool, error)) {
		done(h.manager.DestroyBean(inst), nil)
	})
	if err != nil {
		h.log.Warn("dependent instance not released", zap.String("bean", fmt.Sprint(def)), zap.Error(err))
	}
}

func (h *Handler) fail(req *fhttp.Request, res *fhttp.Response, def container.BeanDef, err error) {
	var ambiguous *container.AmbiguousBeanError
	switch {
	case errors.Is(err, container.ErrUnsatisfiedBean):
		res.NotFound(err.Error())
	case errors.As(err, &ambiguous), errors.Is(err, container.ErrUnresolvedProxy):
		res.Error(http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		res.Error(http.StatusGatewayTimeout, "Timed out waiting for "+fmt.Sprint(def)+".")
	default:
		h.log.Error("bean instantiation failed",
			zap.String("bean", fmt.Sprint(def)),
			zap.String("method", req.Method()),
			zap.String("path", req.Path()),
			zap.String("request_id", req.Header("X-Request-Id")),
			zap.Error(err))
		res.ServerError()
	}
}
