package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// KVStore the Redis subset used for dedup state (implemented by *redis.Client)
type KVStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// missedState value stored under a dedup key
type missedState struct {
	NotifiedAt int64 `json:"notified_at"`
}

// Dedup remembers which misses were already notified, with a TTL so keys outlive the day
type Dedup struct {
	kv        KVStore
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewDedup creates the dedup state manager
func NewDedup(kv KVStore, keyPrefix string, ttl time.Duration, logger *zap.Logger) *Dedup {
	if ttl <= 0 {
		ttl = 36 * time.Hour
	}
	return &Dedup{
		kv:        kv,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// Key medvault:missed:<profile>:<date>:<slot>:<medication>
func (d *Dedup) Key(profileID, date string, slot models.TimeSlot, medicationName string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", d.keyPrefix, profileID, date, slot, medicationName)
}

// Filter marks each miss as notified and returns only the ones not marked before
func (d *Dedup) Filter(ctx context.Context, profileID, date string, missed []models.MissedDose) ([]models.MissedDose, error) {
	fresh := make([]models.MissedDose, 0, len(missed))
	for _, m := range missed {
		key := d.Key(profileID, date, m.TimeSlot, m.MedicationName)
		value, err := json.Marshal(missedState{NotifiedAt: time.Now().Unix()})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}
		ok, err := d.kv.SetNX(ctx, key, value, d.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to set state: %w", err)
		}
		if ok {
			fresh = append(fresh, m)
			continue
		}
		d.logger.Debug("Miss already notified", zap.String("key", key))
	}
	return fresh, nil
}

// Clear drops the state for one miss so it is notified again
func (d *Dedup) Clear(ctx context.Context, profileID, date string, slot models.TimeSlot, medicationName string) error {
	if err := d.kv.Del(ctx, d.Key(profileID, date, slot, medicationName)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}
