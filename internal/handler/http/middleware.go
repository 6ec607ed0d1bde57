package http

import (
	"mime"
	"net/http"

	"github.com/utafrali/rocketshoes/pkg/httputil"
)

// ContentTypeJSON answers 415 to POST and PUT requests, or any request with
// a body, whose declared Content-Type is not application/json. A missing
// Content-Type is accepted.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		declared := r.Header.Get("Content-Type")
		hasBody := r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut
		if hasBody && declared != "" {
			if mediaType, _, err := mime.ParseMediaType(declared); err != nil || mediaType != "application/json" {
				httputil.WriteErrorCode(w, r, http.StatusUnsupportedMediaType,
					"UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
