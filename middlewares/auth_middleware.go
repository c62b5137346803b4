package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

// PrincipalKey is the gin context key holding the verified *models.Principal.
const PrincipalKey = "principal"

type TokenVerifier interface {
	Verify(raw string, kind models.TokenKind) (*models.Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// Authorize verifies an access token and checks its role against roles. An
// empty role set admits any authenticated principal.
func Authorize(v TokenVerifier, token string, roles ...models.Role) (*models.Principal, error) {
	if token == "" {
		return nil, utils.NewAuthenticationError(utils.ReasonNoCredential, "authorization token required", nil)
	}
	principal, err := v.Verify(token, models.TokenAccess)
	if err != nil {
		return nil, utils.NewAuthenticationError(utils.ReasonInvalidCredential, "invalid credential: "+err.Error(), err)
	}
	if !principal.HasRole(roles...) {
		return nil, utils.NewForbiddenError("insufficient role for this resource")
	}
	return principal, nil
}

// RequireAuth guards a route group with the bearer access token.
func RequireAuth(v TokenVerifier, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := Authorize(v, BearerToken(c.GetHeader("Authorization")), roles...)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// WebSocketAuthMiddleware reads the access token from the "token" query
// parameter, since browsers cannot set headers on websocket upgrades.
func WebSocketAuthMiddleware(v TokenVerifier, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = BearerToken(c.GetHeader("Authorization"))
		}
		principal, err := Authorize(v, token, roles...)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by RequireAuth.
func CurrentPrincipal(c *gin.Context) (*models.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok && p != nil
}

// MustPrincipal is CurrentPrincipal for handlers mounted behind RequireAuth;
// it renders 401 and returns nil when no principal is attached.
func MustPrincipal(c *gin.Context) *models.Principal {
	p, ok := CurrentPrincipal(c)
	if !ok {
		utils.RespondError(c, utils.NewAuthenticationError(utils.ReasonNoCredential, "authentication required", nil).
			WithStatus(http.StatusUnauthorized))
		return nil
	}
	return p
}
