package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	pkghttp "github.com/BradenHooton/authguard/pkg/http"
)

// APIKeyHeader carries the service key when Authorization is not used
const APIKeyHeader = "X-API-Key"

// ErrEmptyServiceKey is returned when no service key is configured
var ErrEmptyServiceKey = errors.New("service key must not be empty")

// ServiceKey authenticates the trusted login glue that reports outcomes and
// forgives identifiers. Only the SHA256 hash of the key is held.
type ServiceKey struct {
	hash [sha256.Size]byte
}

// NewServiceKey hashes the configured key
func NewServiceKey(key string) (*ServiceKey, error) {
	if key == "" {
		return nil, ErrEmptyServiceKey
	}
	return &ServiceKey{hash: sha256.Sum256([]byte(key))}, nil
}

// Matches compares a presented key in constant time. Hashing first keeps
// the comparison independent of the presented key's length.
func (k *ServiceKey) Matches(presented string) bool {
	if k == nil || presented == "" {
		return false
	}
	got := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(got[:], k.hash[:]) == 1
}

// RequireServiceKey rejects requests that do not present the service key as
// "Authorization: Bearer <key>" or X-API-Key. A nil key rejects everything.
func RequireServiceKey(key *ServiceKey) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !key.Matches(presentedKey(r)) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="authguard"`)
				pkghttp.WriteError(w, http.StatusUnauthorized, "unauthorized", "valid service key required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.Header.Get(APIKeyHeader)
}
