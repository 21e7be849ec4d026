// internal/api/auth_middleware.go
package api

import (
	"crypto/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MYMGG/storysmith-mvp/internal/auth"
)

var tokenConfig *auth.TokenConfig

// InitializeAuth sets up the token signing key. The key comes from
// AUTH_SECRET_KEY when present; otherwise a random per-process key is used,
// which invalidates tokens on restart.
func InitializeAuth(debugMode bool) error {
	var secret []byte

	if envSecret := os.Getenv("AUTH_SECRET_KEY"); envSecret != "" {
		secret = []byte(envSecret)
	} else if debugMode {
		// Fixed key in development so sessions survive restarts.
		secret = []byte("dev_auth_key_for_testing_purposes_only_")
		logrus.Warn("using fixed development auth key; set AUTH_SECRET_KEY in production")
	} else {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
	}

	if len(secret) < 32 {
		padded := make([]byte, 32)
		copy(padded, secret)
		secret = padded
	} else if len(secret) > 32 {
		secret = secret[:32]
	}

	tokenConfig = &auth.TokenConfig{
		Secret:     secret,
		Expiration: 24 * time.Hour,
	}

	return nil
}

// accessGateMiddleware guards mutating routes behind a bearer token issued by
// the access-code exchange. When no access code is configured the gate is
// open.
func accessGateMiddleware(accessCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if accessCode == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			FailWithStatus(c, http.StatusUnauthorized, "Missing access token")
			c.Abort()
			return
		}

		token, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), tokenConfig)
		if err != nil {
			FailWithStatus(c, http.StatusUnauthorized, "Invalid access token")
			c.Abort()
			return
		}

		c.Set("subject", token.Subject)
		c.Next()
	}
}
