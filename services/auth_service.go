package services

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     models.Role
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

type AuthService struct {
	users      UserRepository
	tokens     *utils.TokenService
	bcryptCost int
}

func NewAuthService(users UserRepository, tokens *utils.TokenService, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, " <>") {
		return utils.NewValidationError(utils.ReasonInvalidInput, "invalid email address")
	}
	return nil
}

// Register creates a customer account. Staff and admin accounts are only
// created by an admin through the user endpoints.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = database.NormalizeEmail(in.Email)
	if in.Name == "" || in.Password == "" {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "name, email and password are required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	switch in.Role {
	case "", models.RoleCustomer:
		in.Role = models.RoleCustomer
	case models.RoleStaff, models.RoleAdmin:
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "role cannot be self-assigned")
	default:
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "unknown role")
	}

	user, err := createUser(ctx, s.users, in, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("user_id", user.ID).Infof("New user registered: %s", user.Email)
	return s.issuePair(user)
}

// createUser checks uniqueness, hashes the password and stores the user.
// The role in in must already be decided by the caller.
func createUser(ctx context.Context, users UserRepository, in RegisterInput, cost int) (*models.User, error) {
	if _, err := users.FindByEmail(ctx, in.Email); err == nil {
		return nil, utils.NewConflictError(utils.ReasonDuplicate, "email already registered")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, utils.NewInternalError(err)
	}
	if _, err := users.FindByFullName(ctx, in.Name); err == nil {
		return nil, utils.NewConflictError(utils.ReasonDuplicate, "name already taken")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, utils.NewInternalError(err)
	}

	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	user := &models.User{
		FullName: in.Name,
		Email:    in.Email,
		Password: hash,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     in.Role,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, utils.NewConflictError(utils.ReasonDuplicate, "email or name already registered")
		}
		return nil, utils.NewInternalError(err)
	}
	return user, nil
}

// Login checks the credentials. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	badLogin := utils.NewValidationError(utils.ReasonBadLogin, "invalid email or password")
	if email == "" || password == "" {
		return nil, badLogin
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, badLogin
		}
		return nil, utils.NewInternalError(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, badLogin
	}
	return s.issuePair(user)
}

func (s *AuthService) issuePair(user *models.User) (*AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: access.Token, RefreshToken: refresh.Token}, nil
}

// Refresh trades a refresh token for a new access token built from the
// current user record. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (utils.SignedToken, error) {
	if refreshToken == "" {
		return utils.SignedToken{}, utils.NewAuthenticationError(utils.ReasonNoCredential, "refresh token required", nil)
	}
	principal, err := s.tokens.Verify(refreshToken, models.TokenRefresh)
	if err != nil {
		return utils.SignedToken{}, utils.NewAuthenticationError(utils.ReasonInvalidRefreshToken, "invalid refresh token", err).
			WithStatus(http.StatusForbidden)
	}
	user, err := s.users.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.SignedToken{}, utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
		}
		return utils.SignedToken{}, utils.NewInternalError(err)
	}
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return utils.SignedToken{}, utils.NewInternalError(err)
	}
	return access, nil
}

// Me returns the live record behind a principal.
func (s *AuthService) Me(ctx context.Context, p *models.Principal) (*models.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
		}
		return nil, utils.NewInternalError(err)
	}
	return user, nil
}
