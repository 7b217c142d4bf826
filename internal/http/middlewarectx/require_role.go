package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
)

// RequireRole возвращает middleware, пропускающий запрос только при
// совпадении роли из контекста с требуемой. Ставится после JWTMiddleware.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual, ok := r.Context().Value(Role).(string)
			if !ok || actual != role {
				log.Error("insufficient role",
					slog.String("required", role), slog.String("actual", actual))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAdmin возвращает true, если в контексте запроса роль администратора.
func IsAdmin(r *http.Request) bool {
	role, ok := r.Context().Value(Role).(string)
	return ok && role == "admin"
}
