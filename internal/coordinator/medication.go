package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

// DecrementPillCount takes one pill off medicationName in recordID, owned by ownerProfileID
// ("" means the active profile), and returns the new count.
// Decrements from this coordinator are serialized; there is no compare-and-swap, so a
// concurrent decrement from another device can still be lost.
func (c *Coordinator) DecrementPillCount(ctx context.Context, ownerProfileID, recordID, medicationName string) (int, error) {
	var remaining int
	err := c.updateMedication(ctx, ownerProfileID, recordID, medicationName, func(m *models.Medication) {
		remaining = m.Decremented()
		m.PillsRemaining = models.IntPtr(remaining)
		m.NormalizePills()
	})
	if err != nil {
		return 0, err
	}

	c.logger.Debug("Pill count decremented",
		zap.String("record_id", recordID),
		zap.String("medication_name", medicationName),
		zap.Int("pills_remaining", remaining),
	)
	return remaining, nil
}

// UpdatePricing stores a price lookup on one medication of an active-profile record
func (c *Coordinator) UpdatePricing(ctx context.Context, recordID, medicationName string, pricing models.Pricing) error {
	if pricing.UpdatedAt.IsZero() {
		pricing.UpdatedAt = time.Now().UTC()
	}
	return c.updateMedication(ctx, "", recordID, medicationName, func(m *models.Medication) {
		p := pricing
		m.Pricing = &p
	})
}

// updateMedication read-modify-write of one medication against the owner's partition.
// The in-memory view can lag this device's own previous write, so it is not read here.
func (c *Coordinator) updateMedication(ctx context.Context, ownerProfileID, recordID, medicationName string, change func(*models.Medication)) error {
	acting, err := c.requireProfile()
	if err != nil {
		return err
	}
	owner := ownerProfileID
	if owner == "" {
		owner = acting
	}

	c.medMu.Lock()
	defer c.medMu.Unlock()

	record, err := c.records.GetByID(ctx, owner, recordID)
	if err != nil {
		return fmt.Errorf("failed to load record %s for profile %s: %w", recordID, owner, err)
	}
	if record == nil {
		return fmt.Errorf("record %s: %w", recordID, models.ErrNotFound)
	}

	analysis := record.Analysis.Clone()
	idx := analysis.FindMedication(medicationName)
	if idx < 0 {
		return fmt.Errorf("medication %q in record %s: %w", medicationName, recordID, models.ErrNotFound)
	}
	change(&analysis.Medications[idx])

	return c.update(ctx, owner, recordID, models.RecordPatch{Analysis: &analysis})
}
