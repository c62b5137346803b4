package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

// ProfileUpdate holds the self-service fields; nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

type UserService struct {
	users      UserRepository
	ledger     *PointsLedger
	bcryptCost int
}

func NewUserService(users UserRepository, ledger *PointsLedger, bcryptCost int) *UserService {
	return &UserService{users: users, ledger: ledger, bcryptCost: bcryptCost}
}

func userLookupError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return utils.NewNotFoundError(utils.ReasonUserNotFound, "user not found")
	}
	if errors.Is(err, database.ErrDuplicate) {
		return utils.NewConflictError(utils.ReasonDuplicate, "email or name already registered")
	}
	return utils.NewInternalError(err)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

// Create is the admin path for new accounts and may assign any role.
func (s *UserService) Create(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = database.NormalizeEmail(in.Email)
	if in.Name == "" || in.Password == "" {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "name, email and password are required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "unknown role")
	}
	user, err := createUser(ctx, s.users, in, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user created")
	return user, nil
}

// UpdateProfile changes name, email, phone or password. Role and points are
// not reachable from here.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, utils.NewValidationError(utils.ReasonInvalidInput, "name must not be empty")
		}
		fields["full_name"] = name
	}
	if in.Email != nil {
		email := database.NormalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, utils.NewValidationError(utils.ReasonInvalidInput, "password must not be empty")
		}
		hash, err := utils.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return nil, utils.NewInternalError(err)
		}
		fields["password"] = hash
	}
	return s.update(ctx, id, fields)
}

func (s *UserService) update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return nil, userLookupError(err)
	}
	user, err := s.users.Update(ctx, id, fields)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *UserService) SetRole(ctx context.Context, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, utils.NewValidationError(utils.ReasonInvalidInput, "unknown role")
	}
	user, err := s.update(ctx, id, map[string]interface{}{"role": role})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{"user_id": id, "role": role}).Info("user role changed")
	return user, nil
}

func (s *UserService) SetInStore(ctx context.Context, id uint, inStore bool) (*models.User, error) {
	return s.update(ctx, id, map[string]interface{}{"is_in_store": inStore})
}

// AdjustPoints applies a signed staff correction through the ledger.
func (s *UserService) AdjustPoints(ctx context.Context, id uint, delta int) (*models.User, error) {
	return s.ledger.Adjust(ctx, id, delta)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return userLookupError(err)
	}
	utils.InfoLogger.WithField("user_id", id).Info("user deleted")
	return nil
}
