package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

func TestUserServiceAdminFlow(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.ledger, bcrypt.MinCost)
	ctx := context.Background()

	staff, err := svc.Create(ctx, RegisterInput{Name: "Barista", Email: "bar@cafe.com", Password: "p", Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)

	_, err = svc.Create(ctx, RegisterInput{Name: "X", Email: "x@cafe.com", Password: "p", Role: "owner"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	got, err := svc.SetRole(ctx, staff.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	got, err = svc.SetInStore(ctx, staff.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsInStore)
	got, err = svc.SetInStore(ctx, staff.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsInStore)

	got, err = svc.AdjustPoints(ctx, staff.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Points)
	_, err = svc.AdjustPoints(ctx, staff.ID, -20)
	assert.Equal(t, utils.ReasonInsufficientBalance, utils.AsAppError(err).Reason)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, staff.ID))
	assert.True(t, utils.IsKind(svc.Delete(ctx, staff.ID), utils.KindNotFound))
	_, err = svc.Get(ctx, staff.ID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, env.ledger, bcrypt.MinCost)
	ctx := context.Background()
	ada := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)
	env.seedUser(t, "Bob", "bob@example.com", models.RoleCustomer)

	phone := "0812"
	password := "new-secret"
	got, err := svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{Phone: &phone, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "0812", got.Phone)
	assert.True(t, utils.CheckPassword(got.Password, "new-secret"))
	assert.Equal(t, models.RoleCustomer, got.Role)

	taken := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{Email: &taken})
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	empty := " "
	_, err = svc.UpdateProfile(ctx, ada.ID, ProfileUpdate{Name: &empty})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = svc.UpdateProfile(ctx, 999, ProfileUpdate{Phone: &phone})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}
