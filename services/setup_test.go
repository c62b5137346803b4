package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

type testEnv struct {
	db      *gorm.DB
	users   *database.UserStore
	orders  *database.OrderStore
	menu    *database.MenuStore
	rewards *database.RewardStore
	tokens  *utils.TokenService
	ledger  *PointsLedger
	events  *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	tokens, err := utils.NewTokenService(utils.TokenConfig{
		AccessSecret:  []byte("access-test"),
		RefreshSecret: []byte("refresh-test"),
	})
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		users:   database.NewUserStore(db),
		orders:  database.NewOrderStore(db),
		menu:    database.NewMenuStore(db),
		rewards: database.NewRewardStore(db),
		tokens:  tokens,
		events:  &recordingPublisher{},
	}
	env.ledger = NewPointsLedger(env.users, env.orders)
	return env
}

func (e *testEnv) seedUser(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{FullName: name, Email: email, Password: hash, Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Event)
	}
	return out
}

// flakyOrders fails CreditPoints while broken is set.
type flakyOrders struct {
	OrderRepository
	mu     sync.Mutex
	broken bool
}

func (f *flakyOrders) setBroken(b bool) {
	f.mu.Lock()
	f.broken = b
	f.mu.Unlock()
}

func (f *flakyOrders) CreditPoints(ctx context.Context, orderID, userID uint, points int) (*models.User, error) {
	f.mu.Lock()
	broken := f.broken
	f.mu.Unlock()
	if broken {
		return nil, errors.New("connection reset")
	}
	return f.OrderRepository.CreditPoints(ctx, orderID, userID, points)
}

// disconnectingOrders cancels the request context as soon as crediting
// starts, like a client that hangs up mid-request.
type disconnectingOrders struct {
	OrderRepository
	cancel context.CancelFunc
}

func (d *disconnectingOrders) CreditPoints(ctx context.Context, orderID, userID uint, points int) (*models.User, error) {
	d.cancel()
	return d.OrderRepository.CreditPoints(ctx, orderID, userID, points)
}
