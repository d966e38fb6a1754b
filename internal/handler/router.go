package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/landing/backend/internal/apperror"
	"github.com/landing/backend/internal/validation"
)

// Controller handles a validated request and returns the success status and
// payload. Errors are returned as is; the error stage classifies them.
type Controller func(ctx context.Context, input validation.Schema) (status int, data any, err error)

// Route binds a method and path to an optional schema and a controller.
type Route struct {
	Method string
	Path   string
	Schema string // validation schema name; empty skips validation
	Handle Controller
}

// Name is the route label used in logs and metrics.
func (rt *Route) Name() string { return rt.Method + " " + rt.Path }

// Router matches requests by method and path. A trailing slash is ignored
// and HEAD falls back to GET.
type Router struct {
	routes map[string]*Route
}

// NewRouter builds a router from routes.
func NewRouter(routes ...Route) *Router {
	rt := &Router{routes: make(map[string]*Route, len(routes))}
	for i := range routes {
		r := routes[i]
		r.Path = normalizePath(r.Path)
		rt.routes[r.Method+" "+r.Path] = &r
	}
	return rt
}

// Match returns the route for method and path.
func (rt *Router) Match(method, path string) (*Route, bool) {
	path = normalizePath(path)
	if r, ok := rt.routes[method+" "+path]; ok {
		return r, true
	}
	if method == http.MethodHead {
		r, ok := rt.routes[http.MethodGet+" "+path]
		return r, ok
	}
	return nil, false
}

func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

// Stage resolves the route or fails with NOT_FOUND.
func (rt *Router) Stage() Stage {
	return Stage{
		Name: "route",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			route, ok := rt.Match(r.Method, r.URL.Path)
			if !ok {
				return Fail(apperror.NotFound(fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path)))
			}
			stateFrom(r).route = route
			return Next(nil)
		},
	}
}

// ValidationStage checks the parsed body against the route's schema and
// stores the normalized input.
func ValidationStage() Stage {
	return Stage{
		Name: "validate",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			st := stateFrom(r)
			if st.route == nil || st.route.Schema == "" {
				return Next(nil)
			}
			input, err := validation.Parse(st.route.Schema, st.fields)
			if err != nil {
				return Fail(err)
			}
			st.input = input
			return Next(nil)
		},
	}
}

// ControllerStage dispatches to the matched route and writes the success
// envelope.
func ControllerStage() Stage {
	return Stage{
		Name: "controller",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			st := stateFrom(r)
			if st.route == nil {
				return Fail(apperror.NotFound(""))
			}
			status, data, err := st.route.Handle(r.Context(), st.input)
			if err != nil {
				return Fail(err)
			}
			writeSuccess(w, status, data)
			return Halt()
		},
	}
}
