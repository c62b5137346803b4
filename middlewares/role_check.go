package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

// RoleCheck narrows a group already behind RequireAuth to the given roles.
func RoleCheck(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := MustPrincipal(c)
		if principal == nil {
			return
		}
		if !principal.HasRole(roles...) {
			utils.RespondError(c, utils.NewForbiddenError("insufficient role for this resource"))
			return
		}
		c.Next()
	}
}

// SelfOrRoles admits the principal whose id matches the :param route value,
// or any principal holding one of roles.
func SelfOrRoles(param string, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := MustPrincipal(c)
		if principal == nil {
			return
		}
		if len(roles) > 0 && principal.HasRole(roles...) {
			c.Next()
			return
		}
		id, err := utils.ParseID(c.Param(param))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if id != principal.UserID {
			utils.RespondError(c, utils.NewForbiddenError("access to another user's resource"))
			return
		}
		c.Next()
	}
}
