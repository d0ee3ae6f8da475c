package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/logging"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は /api/auth/register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("All fields are required"))
		return
	}

	if _, err := m.RegisterUser(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login は /api/auth/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Validation("Email and password are required"))
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	log := logging.FromContext(c)

	if m.limiter != nil {
		retryAfter, err := m.limiter.Check(ctx, ip)
		if err != nil {
			// Redis 障害時はログインそのものを止めない
			log.WithError(err).Warn("login limiter unavailable")
		} else if retryAfter > 0 {
			c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
			apperr.Respond(c, apperr.TooManyRequests("Too many failed login attempts, please try again later"))
			return
		}
	}

	token, expiresAt, err := m.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated && m.limiter != nil {
			if _, limitErr := m.limiter.RecordFailure(ctx, ip); limitErr != nil {
				log.WithError(limitErr).Warn("failed to record login failure")
			}
		}
		apperr.Respond(c, err)
		return
	}

	if m.limiter != nil {
		if err := m.limiter.Reset(ctx, ip); err != nil {
			log.WithError(err).Warn("failed to reset login attempts")
		}
	}

	m.setTokenCookie(c, token, int(m.codec.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"token":     token,
		"expiresAt": expiresAt.UTC(),
	})
}

// Logout は /api/auth/logout のハンドラーです。何度呼んでも成功します。
func (m *Manager) Logout(c *gin.Context) {
	m.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile は認証済みユーザーのプロフィールを返します。
func (m *Manager) Profile(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenMissing, "No token, authorization denied"))
		return
	}

	user, err := m.LoadProfile(c.Request.Context(), principal)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ProtectedCheck はトークンが有効であることを確認するためのハンドラーです。
func (m *Manager) ProtectedCheck(c *gin.Context) {
	principal, ok := PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthenticated(apperr.CodeTokenMissing, "No token, authorization denied"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        principal.UserID().Hex(),
	})
}

func (m *Manager) setTokenCookie(c *gin.Context, value string, maxAge int) {
	if m.secureCookie {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(CookieName, value, maxAge, "/", "", m.secureCookie, true)
}
