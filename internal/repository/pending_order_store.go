package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/payment-verifier/internal/apperr"
	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

// ErrLockNotHeld is returned by ReleaseLock when the lock expired and was
// taken by another verification in the meantime.
var ErrLockNotHeld = errors.New("verification lock no longer held")

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// PendingOrderStore keeps prepared orders in Redis under
// vendweave_order_{id} and guards verifications with verify_lock:{id}.
type PendingOrderStore struct {
	rdb        redis.Cmdable
	pendingTTL time.Duration
	lockTTL    time.Duration
}

func NewPendingOrderStore(rdb redis.Cmdable, pendingTTL, lockTTL time.Duration) *PendingOrderStore {
	if pendingTTL <= 0 {
		pendingTTL = 30 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &PendingOrderStore{rdb: rdb, pendingTTL: pendingTTL, lockTTL: lockTTL}
}

func pendingKey(orderID string) string { return "vendweave_order_" + orderID }
func lockKey(orderID string) string    { return "verify_lock:" + orderID }

func (s *PendingOrderStore) SavePending(ctx context.Context, order models.PendingOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}
	return s.rdb.Set(ctx, pendingKey(order.OrderID), data, s.pendingTTL).Err()
}

func (s *PendingOrderStore) GetPending(ctx context.Context, orderID string) (*models.PendingOrder, error) {
	data, err := s.rdb.Get(ctx, pendingKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrPendingNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	var order models.PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("unmarshal pending order: %w", err)
	}
	return &order, nil
}

func (s *PendingOrderStore) ClearPending(ctx context.Context, orderID string) error {
	return s.rdb.Del(ctx, pendingKey(orderID)).Err()
}

// AcquireLock returns the token identifying this holder, or ok=false when
// another verification of the order holds the lock.
func (s *PendingOrderStore) AcquireLock(ctx context.Context, orderID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockKey(orderID), token, s.lockTTL).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseLock deletes the lock only while it still carries token.
func (s *PendingOrderStore) ReleaseLock(ctx context.Context, orderID, token string) error {
	n, err := releaseLockScript.Run(ctx, s.rdb, []string{lockKey(orderID)}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrLockNotHeld, orderID)
	}
	return nil
}
