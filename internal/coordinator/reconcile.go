package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

// Reconcile pushes records captured before sign-in (cached with no ProfileID) into
// profileID's remote partition and returns how many were created. Remote copies are never
// overwritten, so repeated runs without remote changes write nothing.
//
// Cached records owned by another profile are left alone. A cached record owned by
// profileID only got there through a confirmed remote write, so when it is missing
// remotely it was deleted elsewhere and the cached copy is dropped.
func (c *Coordinator) Reconcile(ctx context.Context, profileID string) (int, error) {
	if profileID == "" {
		return 0, models.ErrNotAuthenticated
	}

	remoteRecords, err := c.records.GetAll(ctx, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load remote records: %w", err)
	}
	localRecords, err := c.cache.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load local records: %w", err)
	}

	known := make(map[string]models.Record, len(remoteRecords))
	for _, r := range remoteRecords {
		known[r.ID] = r
	}

	pushed := 0
	var errs []error
	for i := range localRecords {
		record := localRecords[i]
		switch record.ProfileID {
		case "":
		case profileID:
			if _, ok := known[record.ID]; !ok {
				c.forget(ctx, profileID, record.ID)
			}
			continue
		default:
			continue
		}

		if remoteCopy, ok := known[record.ID]; ok {
			// remote wins; the cached draft now belongs to profileID
			c.adopt(ctx, remoteCopy)
			continue
		}

		record.ProfileID = profileID
		if err := c.records.Create(ctx, profileID, &record); err != nil {
			// taken elsewhere in the meantime; remote wins
			if errors.Is(err, models.ErrAlreadyExists) {
				c.forget(ctx, profileID, record.ID)
				continue
			}
			c.logger.Warn("Failed to push offline record",
				zap.String("profile_id", profileID),
				zap.String("record_id", record.ID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("record %s: %w", record.ID, err))
			continue
		}
		known[record.ID] = record
		c.adopt(ctx, record)
		pushed++
	}

	return pushed, errors.Join(errs...)
}

func (c *Coordinator) adopt(ctx context.Context, record models.Record) {
	if err := c.cache.Save(ctx, record); err != nil {
		c.logger.Warn("Failed to mark cached record as synced",
			zap.String("profile_id", record.ProfileID),
			zap.String("record_id", record.ID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) forget(ctx context.Context, profileID, recordID string) {
	if err := c.cache.Delete(ctx, recordID); err != nil {
		c.logger.Warn("Failed to drop stale cached record",
			zap.String("profile_id", profileID),
			zap.String("record_id", recordID),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Dropped cached record missing remotely",
		zap.String("profile_id", profileID),
		zap.String("record_id", recordID),
	)
}
