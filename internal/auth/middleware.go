package auth

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"github.com/sungwon/recipient-check/internal/metrics"
)

// Verifier checks bearer keys against one bcrypt hash. The digest of the
// last accepted key is remembered so repeat requests skip bcrypt.
type Verifier struct {
	hash string

	mu       sync.Mutex
	accepted [sha256.Size]byte
	ok       bool
}

// NewVerifier returns a Verifier for hash.
func NewVerifier(hash string) *Verifier {
	return &Verifier{hash: hash}
}

// Verify reports whether key is the configured API key.
func (v *Verifier) Verify(key string) bool {
	sum := sha256.Sum256([]byte(key))

	v.mu.Lock()
	hit := v.ok && v.accepted == sum
	v.mu.Unlock()
	if hit {
		return true
	}

	if !VerifyKey(v.hash, key) {
		return false
	}
	v.mu.Lock()
	v.accepted, v.ok = sum, true
	v.mu.Unlock()
	return true
}

// BearerAuth returns middleware that rejects requests without a valid
// "Authorization: Bearer <key>" header.
func BearerAuth(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, `{"error":"authorization header required"}`)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				reject(w, `{"error":"invalid authorization format, expected Bearer <token>"}`)
				return
			}

			key := strings.TrimSpace(parts[1])
			if key == "" {
				reject(w, `{"error":"empty API key"}`)
				return
			}
			if !v.Verify(key) {
				reject(w, `{"error":"invalid API key"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, body string) {
	metrics.APIAuthFailuresTotal.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(body + "\n"))
}
