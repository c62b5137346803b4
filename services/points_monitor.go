package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

const defaultMaxCreditAttempts = 10

// PointsMetrics counts the outcomes of order point credits.
type PointsMetrics struct {
	Credited int64
	Failed   int64
	Retried  int64
	Pending  int64
}

// PointsMonitor retries order point credits that failed during order
// placement. Order creation never waits on it.
type PointsMonitor struct {
	ledger        *PointsLedger
	orders        OrderRepository
	events        EventPublisher
	metrics       PointsMetrics
	retryQueue    []uint
	attempts      map[uint]int
	maxAttempts   int
	retryInterval time.Duration
	mutex         sync.Mutex
	stop          chan struct{}
	stopOnce      sync.Once
}

func NewPointsMonitor(ledger *PointsLedger, orders OrderRepository, events EventPublisher, interval time.Duration) *PointsMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &PointsMonitor{
		ledger:        ledger,
		orders:        orders,
		events:        events,
		retryQueue:    make([]uint, 0),
		attempts:      make(map[uint]int),
		maxAttempts:   defaultMaxCreditAttempts,
		retryInterval: interval,
		stop:          make(chan struct{}),
	}
}

// Start runs the retry loop until Stop is called.
func (pm *PointsMonitor) Start() {
	go func() {
		ticker := time.NewTicker(pm.retryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.ProcessRetryQueue(context.Background())
			case <-pm.stop:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("Points monitor started (interval %s)", pm.retryInterval)
}

func (pm *PointsMonitor) Stop() {
	pm.stopOnce.Do(func() { close(pm.stop) })
}

// AddToRetryQueue queues an order whose credit failed.
func (pm *PointsMonitor) AddToRetryQueue(orderID uint) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	for _, id := range pm.retryQueue {
		if id == orderID {
			return
		}
	}
	pm.retryQueue = append(pm.retryQueue, orderID)
	pm.metrics.Pending = int64(len(pm.retryQueue))
	utils.InfoLogger.WithField("order_id", orderID).Info("queued order for points retry")
}

// ProcessRetryQueue makes one pass over the queued orders.
func (pm *PointsMonitor) ProcessRetryQueue(ctx context.Context) {
	pm.mutex.Lock()
	if len(pm.retryQueue) == 0 {
		pm.mutex.Unlock()
		return
	}
	queue := pm.retryQueue
	pm.retryQueue = make([]uint, 0)
	pm.metrics.Pending = 0
	pm.mutex.Unlock()

	for _, orderID := range queue {
		pm.retry(ctx, orderID)
	}
}

func (pm *PointsMonitor) retry(ctx context.Context, orderID uint) {
	log := utils.ErrorLogger.WithField("order_id", orderID)

	order, err := pm.orders.FindByID(ctx, orderID)
	if err != nil {
		log.Errorf("load order for points retry: %v", err)
		pm.requeue(orderID)
		return
	}

	pm.mutex.Lock()
	pm.metrics.Retried++
	pm.mutex.Unlock()

	user, err := pm.ledger.CreditOrder(ctx, order)
	switch {
	case err == nil:
		pm.RecordCredit(true)
		pm.forget(orderID)
		balance := user.Points
		pm.events.Publish(ctx, models.OrderEvent{
			Event:     models.EventPointsCredited,
			OrderID:   order.ID,
			UserID:    order.UserID,
			Points:    order.PointsEarned,
			Balance:   &balance,
			Timestamp: time.Now(),
		})
	case errors.Is(err, ErrAlreadyCredited):
		pm.forget(orderID)
	default:
		log.Errorf("points retry failed: %v", err)
		pm.requeue(orderID)
	}
}

func (pm *PointsMonitor) requeue(orderID uint) {
	pm.mutex.Lock()
	pm.attempts[orderID]++
	attempts := pm.attempts[orderID]
	pm.mutex.Unlock()

	if attempts >= pm.maxAttempts {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": orderID,
			"attempts": attempts,
		}).Error("giving up on points credit")
		pm.forget(orderID)
		return
	}
	pm.AddToRetryQueue(orderID)
}

func (pm *PointsMonitor) forget(orderID uint) {
	pm.mutex.Lock()
	delete(pm.attempts, orderID)
	pm.mutex.Unlock()
}

// RecordCredit updates the success/failure counters.
func (pm *PointsMonitor) RecordCredit(ok bool) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if ok {
		pm.metrics.Credited++
	} else {
		pm.metrics.Failed++
	}
}

func (pm *PointsMonitor) GetMetrics() PointsMetrics {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return pm.metrics
}
