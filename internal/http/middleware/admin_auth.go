package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orentclinic/booking-bot/pkg/logging"
)

type contextKey string

const staffClaimsKey contextKey = "staffClaims"

// StaffClaims are the claims clinic staff tokens carry for the admin
// appointments surface.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c StaffClaims) allowed() bool {
	return c.Role == "staff" || c.Role == "admin"
}

// AdminAuth guards the admin surface with an HMAC-signed staff JWT. A token
// must be valid, unexpired, and carry a staff or admin role. With no secret
// configured the whole surface stays closed.
func AdminAuth(secret string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		logger.Warn("admin request rejected",
			"reason", reason,
			"path", r.URL.Path,
			"remote_ip", r.RemoteAddr,
		)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				reject(w, r, "admin auth not configured")
				return
			}
			auth := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || tokenString == "" {
				reject(w, r, "missing bearer token")
				return
			}
			claims := StaffClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, keyFunc)
			if err != nil || !token.Valid {
				reject(w, r, "invalid token")
				return
			}
			if !claims.allowed() {
				reject(w, r, "insufficient role")
				return
			}
			ctx := context.WithValue(r.Context(), staffClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffClaimsFromContext returns the verified staff claims if present.
func StaffClaimsFromContext(ctx context.Context) (StaffClaims, bool) {
	claims, ok := ctx.Value(staffClaimsKey).(StaffClaims)
	return claims, ok
}
