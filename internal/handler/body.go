package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/landing/backend/internal/apperror"
)

// MaxBodyBytes is the request body ceiling.
const MaxBodyBytes = 10 << 10

// BodyStage parses JSON and url-encoded bodies up to limit bytes into a
// field map for the validation stage. Other content types leave the map
// empty.
func BodyStage(limit int64) Stage {
	return Stage{
		Name: "body",
		Run: func(w http.ResponseWriter, r *http.Request) Outcome {
			st := stateFrom(r)
			st.fields = map[string]any{}

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if r.Body == nil || (mediaType != "application/json" && mediaType != "application/x-www-form-urlencoded") {
				return Next(nil)
			}

			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return Fail(apperror.PayloadTooLarge(err))
				}
				return Fail(apperror.Wrap(apperror.KindValidation, "Could not read request body", err))
			}

			switch mediaType {
			case "application/json":
				fields, err := parseJSONObject(data)
				if err != nil {
					return Fail(err)
				}
				st.fields = fields
			case "application/x-www-form-urlencoded":
				values, err := url.ParseQuery(string(data))
				if err != nil {
					return Fail(apperror.Wrap(apperror.KindValidation, "Malformed form body", err))
				}
				for k, v := range values {
					if len(v) > 0 {
						st.fields[k] = v[0]
					}
				}
			}
			return Next(nil)
		},
	}
}

func parseJSONObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "Malformed JSON body", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperror.Validation("Request body must be a JSON object")
	}
	return obj, nil
}
