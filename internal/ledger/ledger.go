package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
	"github.com/ankon07/medvault-ai-sub000/internal/notify"
	"github.com/ankon07/medvault-ai-sub000/internal/remote"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator the slice of coordinator.Coordinator the ledger needs
type Coordinator interface {
	ActiveProfile() string
	TakenEvents() []models.TakenMedicationEvent
	DecrementPillCount(ctx context.Context, ownerProfileID, recordID, medicationName string) (int, error)
}

// MedicationRef identifies the medication a dose was taken from
type MedicationRef struct {
	Name           string
	SourceID       string // record holding the medication; empty skips the pill decrement
	OwnerProfileID string // profile owning the record; empty means the active profile
	Dosage         string
}

// Ledger records taken doses for the active profile or a family member
type Ledger struct {
	coord    Coordinator
	taken    remote.TakenEventStore
	family   notify.FamilyDirectory
	notifier notify.Notifier
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger

	// serializes RecordTaken; written keys cover events not yet echoed by the subscription
	// and are scoped to one acting profile on one day
	mu           sync.Mutex
	written      map[string]struct{}
	writtenScope string
}

// New creates a ledger. loc is the calendar timezone for dates (nil means time.Local).
func New(coord Coordinator, taken remote.TakenEventStore, family notify.FamilyDirectory, notifier notify.Notifier, loc *time.Location, logger *zap.Logger) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{
		coord:    coord,
		taken:    taken,
		family:   family,
		notifier: notifier,
		location: loc,
		now:      time.Now,
		logger:   logger,
		written:  make(map[string]struct{}),
	}
}

// SetClock overrides the time source
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Today calendar date in the ledger's timezone
func (l *Ledger) Today() string {
	return models.DateString(l.now(), l.location)
}

// rescope drops the written set when the acting profile or the day changes
func (l *Ledger) rescope(acting string) {
	scope := acting + "|" + l.Today()
	if scope == l.writtenScope {
		return
	}
	l.written = make(map[string]struct{})
	l.writtenScope = scope
}

func eventKey(profileID, name string, slot models.TimeSlot, date string) string {
	return profileID + "|" + name + "|" + string(slot) + "|" + date
}

// IsMedicationTaken checks the active profile's in-memory taken events
func (l *Ledger) IsMedicationTaken(name string, slot models.TimeSlot, date string) bool {
	for _, e := range l.coord.TakenEvents() {
		if e.Matches(name, slot, date) {
			return true
		}
	}
	return false
}

// TakenForDate the active profile's in-memory taken events on date
func (l *Ledger) TakenForDate(date string) []models.TakenMedicationEvent {
	out := make([]models.TakenMedicationEvent, 0)
	for _, e := range l.coord.TakenEvents() {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// RecordTaken writes a taken event for ref in slot on date ("" means today), decrements the
// pill count and tells the rest of the family. Returns false without writing when the dose
// is already recorded. Only the event write can fail the call.
func (l *Ledger) RecordTaken(ctx context.Context, ref MedicationRef, slot models.TimeSlot, date string) (bool, error) {
	acting := l.coord.ActiveProfile()
	if acting == "" {
		return false, models.ErrNotAuthenticated
	}
	if ref.Name == "" {
		return false, fmt.Errorf("medication name is required")
	}
	if !slot.Valid() {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidTimeSlot, slot)
	}
	if date == "" {
		date = l.Today()
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return false, fmt.Errorf("invalid date %q: %w", date, err)
	}
	owner := ref.OwnerProfileID
	if owner == "" {
		owner = acting
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rescope(acting)

	taken, err := l.alreadyTaken(ctx, acting, owner, ref.Name, slot, date)
	if err != nil {
		return false, err
	}
	if taken {
		l.logger.Debug("Dose already recorded",
			zap.String("profile_id", owner),
			zap.String("medication_name", ref.Name),
			zap.String("time_slot", string(slot)),
			zap.String("date", date),
		)
		return false, nil
	}

	event := models.TakenMedicationEvent{
		ID:             uuid.New().String(),
		ProfileID:      owner,
		MedicationName: ref.Name,
		TimeSlot:       slot,
		Date:           date,
		TakenAt:        l.now().UTC(),
		SourceID:       ref.SourceID,
	}
	if ref.Dosage != "" {
		dosage := ref.Dosage
		event.Dosage = &dosage
	}
	if err := l.taken.Create(ctx, owner, &event); err != nil {
		return false, fmt.Errorf("failed to record taken medication: %w", err)
	}
	l.written[eventKey(owner, ref.Name, slot, date)] = struct{}{}

	l.logger.Info("Dose recorded",
		zap.String("profile_id", owner),
		zap.String("acting_profile_id", acting),
		zap.String("medication_name", ref.Name),
		zap.String("time_slot", string(slot)),
		zap.String("date", date),
	)

	// the event is the fact of record; the pill count is advisory
	if ref.SourceID != "" {
		if _, err := l.coord.DecrementPillCount(ctx, owner, ref.SourceID, ref.Name); err != nil {
			l.logger.Warn("Pill count not decremented",
				zap.String("profile_id", owner),
				zap.String("record_id", ref.SourceID),
				zap.String("medication_name", ref.Name),
				zap.Error(err),
			)
		}
	}

	l.notifyFamily(ctx, acting, owner, event)
	return true, nil
}

// alreadyTaken uses the in-memory events for the active profile and reads the owner's
// partition for anyone else
func (l *Ledger) alreadyTaken(ctx context.Context, acting, owner, name string, slot models.TimeSlot, date string) (bool, error) {
	if _, ok := l.written[eventKey(owner, name, slot, date)]; ok {
		return true, nil
	}
	if owner == acting {
		return l.IsMedicationTaken(name, slot, date), nil
	}

	events, err := l.taken.GetByDate(ctx, owner, date, slot)
	if err != nil {
		return false, fmt.Errorf("failed to check taken medications: %w", err)
	}
	for _, e := range events {
		if e.Matches(name, slot, date) {
			return true, nil
		}
	}
	return false, nil
}

func (l *Ledger) notifyFamily(ctx context.Context, acting, owner string, event models.TakenMedicationEvent) {
	if l.family == nil || l.notifier == nil {
		return
	}
	members, err := notify.Roster(ctx, l.family, acting)
	if err != nil {
		l.logger.Warn("Skipping dose notification", zap.String("profile_id", acting), zap.Error(err))
		return
	}
	recipients := notify.Except(members, acting)
	if len(recipients) == 0 {
		return
	}

	n := notify.NewNotification(
		models.NotificationDoseTaken,
		acting,
		"Medication taken",
		fmt.Sprintf("%s was taken (%s, %s)", event.MedicationName, event.TimeSlot, event.Date),
		map[string]interface{}{
			"medication_name":  event.MedicationName,
			"time_slot":        string(event.TimeSlot),
			"date":             event.Date,
			"owner_profile_id": owner,
			"source_id":        event.SourceID,
		},
	)
	delivered := notify.Broadcast(ctx, l.notifier, recipients, n, l.logger)
	l.logger.Debug("Dose notification sent",
		zap.Int("recipients", len(recipients)),
		zap.Int("delivered", delivered),
	)
}
