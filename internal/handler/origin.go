package handler

import "net/http"

// OriginStage attaches CORS headers only when the request's Origin equals
// allowed exactly. Preflight requests end here with a bare 200 whether or not
// the origin matched.
func OriginStage(allowed string) Stage {
	return Stage{
		Name: "origin",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" && origin == allowed {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return Halt()
			}
			return Next(nil)
		},
	}
}
