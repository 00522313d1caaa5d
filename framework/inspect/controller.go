// Package inspect serves a read-mostly JSON view of a bean factory: the
// parsed declarations, which singletons are cached, and on-demand builds
// with caller-supplied constructor arguments.
package inspect

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/declaration"
	"github.com/km-arc/go-beans/framework/errs"
	gohttp "github.com/km-arc/go-beans/framework/http"
	"github.com/km-arc/go-beans/framework/routing"
	"github.com/km-arc/go-beans/framework/types"
)

// Factory is the part of a declarative bean factory the controller reads.
type Factory interface {
	container.BeanFactory
	Declarations() (declaration.Set, error)
	Instantiated(id string) bool
}

// Controller exposes a Factory over HTTP.
type Controller struct {
	beans Factory
	types *types.Registry
	log   *zap.Logger
}

// NewController returns a controller over beans. reg converts string
// arguments that carry a declared type; log may be nil.
func NewController(beans Factory, reg *types.Registry, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{beans: beans, types: reg, log: log}
}

// Routes registers the bean endpoints on r.
func (c *Controller) Routes(r *routing.Router) {
	r.Get("/healthz", c.Health)
	r.Prefix("/beans", func(r *routing.Router) {
		r.Get("/", c.Index)
		r.Get("/{id}", c.Show)
		r.Post("/{id}/instances", c.Instantiate)
	})
}

type indexQuery struct {
	Scope string `json:"scope" validate:"omitempty,oneof=singleton prototype"`
}

// Index lists every declaration in id order, optionally filtered by scope.
func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	q := indexQuery{Scope: req.Query("scope")}
	if bag := req.Validate(&q); bag.Has() {
		res.ValidationError(bag)
		return
	}

	decls, err := c.beans.Declarations()
	if err != nil {
		res.Fail(err)
		return
	}
	out := make([]Summary, 0, len(decls))
	for _, id := range decls.IDs() {
		d := decls[id]
		if q.Scope != "" && d.Scope.String() != q.Scope {
			continue
		}
		out = append(out, summarize(d, c.beans.Instantiated(id)))
	}
	res.Success(out)
}

// Show returns the declaration named by the id path parameter, which may
// be an alias.
func (c *Controller) Show(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	name := req.RouteParam("id")

	decls, err := c.beans.Declarations()
	if err != nil {
		res.Fail(err)
		return
	}
	d, ok := decls.Lookup(name)
	if !ok {
		res.Fail(errs.NotFound(name))
		return
	}
	res.Success(detail(d, c.beans.Instantiated(d.ID())))
}

type instanceRequest struct {
	Types []string `json:"types" validate:"omitempty,dive,required"`
	Args  []any    `json:"args" validate:"omitempty,max=32"`
}

// Instantiate builds (or, for a cached singleton, fetches) the bean. The
// optional body {"types": [...], "args": [...]} overrides the declared
// constructor arguments; a string argument with a declared type is
// converted from text the way a declared value would be.
func (c *Controller) Instantiate(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	name := req.RouteParam("id")

	var body instanceRequest
	if err := req.Bind(&body); err != nil && !errors.Is(err, gohttp.ErrEmptyBody) {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	if bag := req.Validate(&body); bag.Has() {
		res.ValidationError(bag)
		return
	}

	args, err := c.convert(name, body)
	if err != nil {
		res.Fail(err)
		return
	}

	scope, err := c.beans.Scope(name)
	if err != nil {
		res.Fail(err)
		return
	}
	wasCached := scope == declaration.Singleton && c.beans.Instantiated(name)

	var bean any
	if len(args) == 0 {
		bean, err = c.beans.GetBean(name)
	} else {
		bean, err = c.beans.GetBeanTyped(name, body.Types, args)
	}
	if err != nil {
		c.log.Warn("bean build failed", zap.String("bean", name), zap.Error(err))
		res.Fail(err)
		return
	}

	res.Success(Instance{
		ID:        name,
		Type:      fmt.Sprintf("%T", bean),
		Singleton: scope == declaration.Singleton,
		Cached:    wasCached,
	})
}

func (c *Controller) convert(bean string, body instanceRequest) ([]any, error) {
	args := append([]any(nil), body.Args...)
	for i, a := range args {
		s, ok := a.(string)
		if !ok || i >= len(body.Types) || body.Types[i] == "string" {
			continue
		}
		t, err := c.types.Resolve(body.Types[i])
		if err != nil {
			return nil, &errs.Error{Kind: errs.Configuration, Bean: bean, Position: i + 1, Msg: "unknown argument type", Err: err}
		}
		v, err := types.Convert(s, "", t)
		if err != nil {
			return nil, &errs.Error{Kind: errs.Configuration, Bean: bean, Position: i + 1, Msg: "cannot convert argument", Err: err}
		}
		args[i] = v.Interface()
	}
	return args, nil
}

// Health reports 200 with the bean count once the factory is initialized
// and 503 otherwise.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	decls, err := c.beans.Declarations()
	if err != nil {
		res.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "message": err.Error()})
		return
	}
	res.JSON(http.StatusOK, map[string]any{"status": "ok", "beans": len(decls)})
}
