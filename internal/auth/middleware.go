package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/logging"
)

// CookieName はセッショントークンを保持するクッキー名です。
const CookieName = "token"

// RequireLogin はセッショントークンを検証するミドルウェアを返します。
// トークンはクッキー、次に Authorization: Bearer ヘッダーの順で探します。
func RequireLogin(codec *TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenMissing, "No token, authorization denied"))
			return
		}

		principal, err := codec.Parse(token)
		if err != nil {
			logging.FromContext(c).WithError(err).Debug("token rejected")
			if errors.Is(err, ErrTokenExpired) {
				apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenExpired, "Token expired, please log in again"))
				return
			}
			apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenInvalid, "Invalid token, authorization denied"))
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
