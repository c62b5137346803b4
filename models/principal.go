package models

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Principal is the identity recovered from a verified token. It lives for
// one request and is never persisted.
type Principal struct {
	UserID    uint      `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Username  string    `json:"username,omitempty"`
	Points    int       `json:"points"`
	IsInStore bool      `json:"isInStore"`
	Kind      TokenKind `json:"kind"`
}

// HasRole reports whether the principal's role is in roles. An empty set
// admits any role.
func (p *Principal) HasRole(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
