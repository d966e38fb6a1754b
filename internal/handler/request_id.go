package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/landing/backend/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestIDStage reuses a client-supplied UUID or assigns a new one, echoes it
// in the response and binds a request-scoped logger to the context.
func RequestIDStage() Stage {
	return Stage{
		Name: "request-id",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			return Next(r.WithContext(logging.WithRequest(r.Context(), id)))
		},
	}
}
