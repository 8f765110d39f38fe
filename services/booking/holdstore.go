// File: services/booking/holdstore.go
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"slotbook/models"

	"github.com/go-redis/redis/v8"
)

const holdKeyPrefix = "hold:"

// HoldStore is the enforcement point for soft slot exclusivity during
// checkout. Keys are exactly (serviceId, slot); providerId rides along as
// metadata only.
type HoldStore interface {
	// Create atomically places a hold if and only if no live hold exists for
	// the slot. Returns *HoldConflictError when it loses.
	Create(ctx context.Context, req HoldRequest) (*models.Hold, error)
	// Get returns the live hold and its remaining TTL, or (nil, 0, nil) when
	// none exists. An absent hold is not an error.
	Get(ctx context.Context, serviceID string, slot time.Time) (*models.Hold, time.Duration, error)
	// Extend pushes the expiry of the caller's own hold further out.
	Extend(ctx context.Context, serviceID string, slot time.Time, ownerID string, additionalSeconds int) error
	// Release deletes the caller's own hold. Releasing an absent hold is a
	// no-op success so release stays idempotent; releasing someone else's
	// hold is ErrNotHoldOwner.
	Release(ctx context.Context, serviceID string, slot time.Time, ownerID string) error
}

// HoldRequest carries the inputs for a hold create.
type HoldRequest struct {
	ServiceID  string
	Slot       time.Time
	TTLSeconds int // 0 means the configured default
	CustomerID string
	ProviderID string
	Metadata   map[string]string
}

// RedisHoldStore implements HoldStore on a Redis client. SETNX-with-expiry is
// the sole arbiter for who gets first refusal on a slot.
type RedisHoldStore struct {
	Client            *redis.Client
	Clock             Clock
	DefaultTTLSeconds int
	MaxTTLSeconds     int
}

// NewRedisHoldStore creates a hold store over the given Redis client.
func NewRedisHoldStore(client *redis.Client, clk Clock, defaultTTL, maxTTL int) *RedisHoldStore {
	return &RedisHoldStore{
		Client:            client,
		Clock:             clk,
		DefaultTTLSeconds: defaultTTL,
		MaxTTLSeconds:     maxTTL,
	}
}

// releaseScript deletes the hold only when the presented owner matches.
// Returns 1 on delete, 0 when no hold exists, -1 on owner mismatch.
var releaseScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then return 0 end
local hold = cjson.decode(val)
if hold.customerId == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return -1
`)

// extendScript adds milliseconds to the remaining TTL when the presented
// owner matches. Returns 1 on success, 0 when no hold exists, -1 on mismatch.
var extendScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then return 0 end
local hold = cjson.decode(val)
if hold.customerId ~= ARGV[1] then return -1 end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then ttl = 0 end
redis.call("PEXPIRE", KEYS[1], ttl + tonumber(ARGV[2]))
return 1
`)

func holdKey(serviceID string, slot time.Time) string {
	return holdKeyPrefix + serviceID + ":" + SlotKeyTime(slot)
}

func (s *RedisHoldStore) Create(ctx context.Context, req HoldRequest) (*models.Hold, error) {
	ttl := req.TTLSeconds
	if ttl == 0 {
		ttl = s.DefaultTTLSeconds
	}
	if ttl < 1 || ttl > s.MaxTTLSeconds {
		return nil, fmt.Errorf("%w (got %d, max %d)", ErrInvalidTTL, req.TTLSeconds, s.MaxTTLSeconds)
	}

	now := s.Clock.Now()
	hold := models.Hold{
		ServiceID:  req.ServiceID,
		Slot:       SlotKeyTime(req.Slot),
		CustomerID: req.CustomerID,
		ProviderID: req.ProviderID,
		Metadata:   req.Metadata,
		TTLSeconds: ttl,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttl) * time.Second),
	}
	data, err := json.Marshal(hold)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hold: %w", err)
	}

	key := holdKey(req.ServiceID, req.Slot)
	// Two attempts: the losing hold may expire between our SETNX and the
	// conflict read, in which case the slot is genuinely free again.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.Client.SetNX(ctx, key, data, time.Duration(ttl)*time.Second).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to store hold: %w", err)
		}
		if ok {
			return &hold, nil
		}
		existing, remaining, err := s.Get(ctx, req.ServiceID, req.Slot)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			continue
		}
		return nil, &HoldConflictError{
			RemainingSeconds: int(remaining / time.Second),
			ProviderID:       existing.ProviderID,
			HeldBySelf:       req.CustomerID != "" && existing.CustomerID == req.CustomerID,
		}
	}
	return nil, &HoldConflictError{}
}

func (s *RedisHoldStore) Get(ctx context.Context, serviceID string, slot time.Time) (*models.Hold, time.Duration, error) {
	key := holdKey(serviceID, slot)
	pipe := s.Client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read hold: %w", err)
	}
	var hold models.Hold
	if err := json.Unmarshal([]byte(getCmd.Val()), &hold); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal hold: %w", err)
	}
	remaining := ttlCmd.Val()
	if remaining < 0 {
		remaining = 0
	}
	hold.ExpiresAt = s.Clock.Now().Add(remaining)
	return &hold, remaining, nil
}

func (s *RedisHoldStore) Extend(ctx context.Context, serviceID string, slot time.Time, ownerID string, additionalSeconds int) error {
	if additionalSeconds < 1 || additionalSeconds > s.MaxTTLSeconds {
		return fmt.Errorf("%w (got %d, max %d)", ErrInvalidTTL, additionalSeconds, s.MaxTTLSeconds)
	}
	key := holdKey(serviceID, slot)
	res, err := extendScript.Run(ctx, s.Client, []string{key}, ownerID, additionalSeconds*1000).Int()
	if err != nil {
		return fmt.Errorf("failed to extend hold: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return ErrHoldNotFound
	default:
		return ErrNotHoldOwner
	}
}

func (s *RedisHoldStore) Release(ctx context.Context, serviceID string, slot time.Time, ownerID string) error {
	key := holdKey(serviceID, slot)
	res, err := releaseScript.Run(ctx, s.Client, []string{key}, ownerID).Int()
	if err != nil {
		return fmt.Errorf("failed to release hold: %w", err)
	}
	if res == -1 {
		// Security-relevant check: a third party must never free a slot out
		// from under its legitimate holder.
		return ErrNotHoldOwner
	}
	return nil
}
