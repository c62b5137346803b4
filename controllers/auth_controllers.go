package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/middlewares"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register -> POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}

	res, err := ac.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, res)
}

// Login -> POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.NewValidationError(utils.ReasonBadLogin, "email and password are required"))
		return
	}

	res, err := ac.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.InfoLogger.WithField("user_id", res.User.ID).Info("login successful")
	utils.RespondJSON(c, http.StatusOK, res)
}

// RefreshToken -> POST /auth/refresh-token
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// an unreadable body is treated as a missing token
	_ = c.ShouldBindJSON(&req)

	tok, err := ac.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{
		"token":     tok.Token,
		"expiresAt": tok.ExpiresAt,
	})
}

// Me -> GET /auth/me
func (ac *AuthController) Me(c *gin.Context) {
	principal := middlewares.MustPrincipal(c)
	if principal == nil {
		return
	}
	user, err := ac.auth.Me(c.Request.Context(), principal)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}
