package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/auth"
	"roadtrack/internal/middleware"
	"roadtrack/internal/services"
)

// AuthController serves admin login, registration and the current user.
type AuthController struct {
	auth  *auth.Service
	admin *services.AdminService
}

func NewAuthController(authSvc *auth.Service, admin *services.AdminService) *AuthController {
	return &AuthController{auth: authSvc, admin: admin}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login takes an OAuth2 password form; username carries the email.
func (ac *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if email == "" || password == "" {
		middleware.RespondError(c, apperr.Validation("username and password are required"))
		return
	}

	token, err := ac.auth.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			logrus.WithField("email", email).Warn("login rejected")
		}
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Register creates an admin-portal account. Super admin only.
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, apperr.Validation("Invalid input: "+err.Error()))
		return
	}
	user, err := ac.admin.RegisterUser(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := auth.RequireAuthenticated(middleware.CurrentUser(c))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.NewUserView(user))
}
