package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"price-chain-service/internal/application/dto"
	"price-chain-service/internal/infrastructure/config"
	"price-chain-service/internal/infrastructure/logging"
	"strconv"
	"strings"
)

// AuthMiddleware provides API key authentication
type AuthMiddleware struct {
	config config.AuthConfig
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(config config.AuthConfig) *AuthMiddleware {
	return &AuthMiddleware{
		config: config,
	}
}

// Handler wraps the given handler with API key authentication
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.config.Enabled || am.isUnauthenticatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(am.config.HeaderName)
		if apiKey == "" {
			am.respondWithAuthError(w, r, "API key missing", "API_KEY_MISSING")
			return
		}

		if !am.isValidAPIKey(apiKey) {
			am.respondWithAuthError(w, r, "Invalid API key", "API_KEY_INVALID")
			return
		}

		logging.Debug(r.Context(), "API key authentication successful", logging.Fields{
			logging.FieldHTTPPath:     r.URL.Path,
			logging.FieldHTTPMethod:   r.Method,
			logging.FieldHTTPRemoteIP: getRemoteIP(r),
		})

		next.ServeHTTP(w, r)
	})
}

// isUnauthenticatedPath matches exact paths and prefixes
func (am *AuthMiddleware) isUnauthenticatedPath(path string) bool {
	for _, unauthPath := range am.config.UnauthPaths {
		if path == unauthPath || strings.HasPrefix(path, unauthPath) {
			return true
		}
	}
	return false
}

func (am *AuthMiddleware) isValidAPIKey(providedKey string) bool {
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(am.config.APIKey)) == 1
}

func (am *AuthMiddleware) respondWithAuthError(w http.ResponseWriter, r *http.Request, message, code string) {
	logging.Security().InvalidRequest(r.Context(), getRemoteIP(r), code)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `ApiKey realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)

	response := dto.NewErrorResponseWithCode(code, message, strconv.Itoa(http.StatusUnauthorized))
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.ErrorWithError(r.Context(), "Error encoding auth error response", err, nil)
	}
}
