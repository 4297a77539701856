package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/auth"
	"roadtrack/internal/models"
)

const currentUserKey = "current_user"

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// LoadUser resolves an optional bearer token into the current user. A bad or
// missing token leaves the request anonymous.
func LoadUser(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := svc.ResolveCurrentUser(c.Request.Context(), token)
		if err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		if user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.RequireAuthenticated(CurrentUser(c)); err != nil {
			RespondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose user ranks below role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.RequireRole(CurrentUser(c), role)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindForbidden {
				logrus.WithFields(logrus.Fields{
					"user_id":  CurrentUser(c).ID,
					"role":     CurrentUser(c).Role,
					"required": role,
					"path":     c.FullPath(),
				}).Warn("insufficient role")
			}
			RespondError(c, err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RespondError renders err as {"error": message}. Internal errors are logged
// with the request context and never shown to the client.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": RequestIDFrom(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error("request failed")
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}
