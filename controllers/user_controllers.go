package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GetAllUsers -> GET /users (admin, staff)
func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.users.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, users)
}

// CreateUser -> POST /users (admin). Unlike registration any role is allowed.
func (uc *UserController) CreateUser(c *gin.Context) {
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
	user, err := uc.users.Create(c.Request.Context(), services.RegisterInput{
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
	utils.RespondJSON(c, http.StatusCreated, user)
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := uc.users.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}

// UpdateUser -> PUT /users/:id, profile fields only.
func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		Password *string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.users.UpdateProfile(c.Request.Context(), id, services.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := uc.users.Delete(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustPoints -> PATCH /users/:id/points {delta}
func (uc *UserController) AdjustPoints(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta *int `json:"delta" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.users.AdjustPoints(c.Request.Context(), id, *req.Delta)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}

// SetRole -> PATCH /users/:id/role (admin)
func (uc *UserController) SetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.users.SetRole(c.Request.Context(), id, models.Role(req.Role))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}

// SetInStore -> PATCH /users/:id/in-store
func (uc *UserController) SetInStore(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsInStore *bool `json:"isInStore" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uc.users.SetInStore(c.Request.Context(), id, *req.IsInStore)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, user)
}
