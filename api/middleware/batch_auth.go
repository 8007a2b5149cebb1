package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/harborbox/dispatch-backend/api/responses"
	pkgerrors "github.com/harborbox/dispatch-backend/pkg/errors"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// BatchAuth guards the internal batch endpoints with a shared bearer
// token. These routes are only meant for the cron worker and operator
// tooling, never for end users.
func BatchAuth(logg *logger.Logger, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "batch endpoints are disabled"))
				return
			}

			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid batch credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
