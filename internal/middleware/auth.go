package middleware

import (
	"net/http"

	"donasi-be/internal/auth"
	"donasi-be/internal/logger"
	"donasi-be/internal/utils"

	"go.uber.org/zap"
)

const ServiceAuthHeader = "X-Service-Auth"

// AdminAuth only lets through HS256 tokens signed with secret and carrying
// role=admin. The token subject becomes the user id in context.
func AdminAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.ParseAdminToken(auth.ExtractAccessToken(r), secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("Admin token rejected", zap.Error(err))
				utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if claims.Role != utils.RoleAdmin {
				utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ServiceAuth checks the X-Service-Auth header of backend callers against a
// bcrypt hash of the shared service key.
func ServiceAuth(keyHash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.CheckServiceKey(keyHash, r.Header.Get(ServiceAuthHeader)) {
				utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithServiceCaller(r.Context())))
		})
	}
}
