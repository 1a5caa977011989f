package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
)

// APIKeyHeader carries the caller's key.
const APIKeyHeader = "X-API-KEY"

var (
	errMissingKey = errors.New("X-API-KEY header is required")
	errInvalidKey = errors.New("invalid API key")
)

// AuthConfig holds the accepted API keys.
type AuthConfig struct {
	apiKeys [][]byte
}

// NewAuthConfigWithKeys creates an AuthConfig. Blank keys are ignored and an
// empty set disables authentication.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return AuthConfig{apiKeys: keys}
}

// Enabled reports whether any key is configured.
func (c AuthConfig) Enabled() bool { return len(c.apiKeys) > 0 }

func (c AuthConfig) check(r *http.Request) error {
	given := r.Header.Get(APIKeyHeader)
	if given == "" {
		return errMissingKey
	}
	for _, k := range c.apiKeys {
		if subtle.ConstantTimeCompare(k, []byte(given)) == 1 {
			return nil
		}
	}
	return errInvalidKey
}

// APIKey requires a valid X-API-KEY header on every request.
func APIKey(config AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Enabled() {
				if err := config.check(r); err != nil {
					WriteError(w, r, NewAPIError(http.StatusUnauthorized, err.Error(), nil), logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteProtect requires a valid key only on methods that change state.
// GET, HEAD and OPTIONS always pass.
func WriteProtect(config AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := APIKey(config, logger)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				protected.ServeHTTP(w, r)
			}
		})
	}
}
