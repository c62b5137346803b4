package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

func TestLedgerConcurrentCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.Credit(ctx, u.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Points)
}

func TestLedgerCreditAndDebitRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)

	_, err := env.ledger.Credit(ctx, u.ID, -1)
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = env.ledger.Debit(ctx, u.ID, -1)
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	got, err := env.ledger.Credit(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Points)

	got, err = env.ledger.Debit(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Points)

	_, err = env.ledger.Debit(ctx, u.ID, 1)
	appErr := utils.AsAppError(err)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Equal(t, utils.ReasonInsufficientBalance, appErr.Reason)

	_, err = env.ledger.Credit(ctx, 9999, 1)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	got, err = env.ledger.Adjust(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Points)
}

func TestLedgerCreditOrderOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)

	order := &models.Order{
		UserID:       u.ID,
		Status:       models.OrderPending,
		Total:        3000,
		PointsEarned: 3,
		Items:        []models.OrderItem{{Quantity: 1, Price: 3000}},
	}
	require.NoError(t, env.orders.Insert(ctx, order))

	var wg sync.WaitGroup
	var mu sync.Mutex
	credited := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.CreditOrder(ctx, &models.Order{ID: order.ID, UserID: u.ID, PointsEarned: 3})
			if err == nil {
				mu.Lock()
				credited++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrAlreadyCredited))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, credited)
	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Points)
}

func TestLedgerCreditOrderRetriesAfterFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)

	flaky := &flakyOrders{OrderRepository: env.orders, broken: true}
	ledger := NewPointsLedger(env.users, flaky)

	order := &models.Order{UserID: u.ID, Status: models.OrderPending, Total: 5000, PointsEarned: 5}
	require.NoError(t, env.orders.Insert(ctx, order))

	_, err := ledger.CreditOrder(ctx, order)
	require.Error(t, err)
	assert.False(t, order.PointsCredited)

	stored, err := env.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.PointsCredited)

	flaky.setBroken(false)
	got, err := ledger.CreditOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Points)
	assert.True(t, order.PointsCredited)
}

func TestLedgerCreditOrderSurvivesCancelledContext(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "Ada", "ada@example.com", models.RoleCustomer)

	order := &models.Order{UserID: u.ID, Status: models.OrderPending, Total: 5000, PointsEarned: 5}
	require.NoError(t, env.orders.Insert(context.Background(), order))

	ctx, cancel := context.WithCancel(context.Background())
	ledger := NewPointsLedger(env.users, &disconnectingOrders{OrderRepository: env.orders, cancel: cancel})

	got, err := ledger.CreditOrder(ctx, order)
	require.NoError(t, err)
	assert.Error(t, ctx.Err())
	assert.Equal(t, 5, got.Points)

	stored, err := env.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.PointsCredited)
}
