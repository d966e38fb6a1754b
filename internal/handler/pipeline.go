package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/landing/backend/internal/validation"
)

// Outcome is what a stage hands back to the driver: continue (optionally
// with a replacement request), stop because the stage already responded, or
// fail with an error for the error stage.
type Outcome struct {
	req  *http.Request
	done bool
	err  error
}

// Next continues with the following stage. r may be nil to keep the current
// request.
func Next(r *http.Request) Outcome { return Outcome{req: r} }

// Halt ends the pipeline; the stage has written the response.
func Halt() Outcome { return Outcome{done: true} }

// Fail ends the pipeline and hands err to the error stage.
func Fail(err error) Outcome { return Outcome{err: err} }

// Stage is one named step of the pipeline.
type Stage struct {
	Name string
	Run  func(w http.ResponseWriter, r *http.Request) Outcome
}

// Pipeline runs its stages in a fixed order. The first stage that halts or
// fails ends the request; failures are answered exactly once by the error
// responder.
type Pipeline struct {
	stages []Stage
	errors *ErrorResponder
}

// NewPipeline builds a pipeline from stages, in order.
func NewPipeline(errs *ErrorResponder, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, errors: errs}
}

// StageNames returns the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = withState(r)
	defer func() {
		if rec := recover(); rec != nil {
			p.errors.Respond(w, r, fmt.Errorf("panic: %v", rec))
		}
	}()

	for _, s := range p.stages {
		out := s.Run(w, r)
		switch {
		case out.err != nil:
			p.errors.Respond(w, r, fmt.Errorf("%s: %w", s.Name, out.err))
			return
		case out.done:
			return
		case out.req != nil:
			r = out.req
		}
	}
	p.errors.Respond(w, r, fmt.Errorf("no stage produced a response for %s %s", r.Method, r.URL.Path))
}

// requestState carries what earlier stages learned to later ones.
type requestState struct {
	fields map[string]any
	route  *Route
	input  validation.Schema
}

type stateKey struct{}

// withState attaches a requestState unless an outer middleware already did.
func withState(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), stateKey{}, &requestState{}))
}

func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return st
	}
	return &requestState{}
}
