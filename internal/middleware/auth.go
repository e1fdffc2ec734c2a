package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/taskflowhq/taskflow/pkg/response"
)

const identityKey = "identity_id"

// SessionClaims is the verified session token payload. The subject is
// the identity provider's user ID, which is also the ID stored on
// documents (owner, assignee, reporter).
type SessionClaims struct {
	jwt.RegisteredClaims
}

// RequireIdentity verifies the Bearer session token and stores the
// caller's provider user ID on the request context. Requests without a
// valid session are rejected with 401 before any handler runs.
func RequireIdentity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.AbortFail(c, response.NewUnauthorized())
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			response.AbortFail(c, response.NewUnauthorized())
			return
		}

		c.Set(identityKey, claims.Subject)
		c.Next()
	}
}

// GetIdentityID returns the authenticated caller's provider user ID.
// The second result is false when the middleware did not run.
func GetIdentityID(c *gin.Context) (string, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// IssueSessionToken signs a session token for the given provider user
// ID. Used by tests and by operators minting service sessions.
func IssueSessionToken(secret, providerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   providerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
