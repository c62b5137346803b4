package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/utils"
)

// bindJSON decodes the body into dst and renders a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, utils.NewValidationError(utils.ReasonInvalidInput, "invalid request body: "+err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		utils.RespondError(c, err)
		return 0, false
	}
	return id, true
}
