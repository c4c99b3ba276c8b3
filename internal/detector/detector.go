package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
	"github.com/ankon07/medvault-ai-sub000/internal/notify"
	"github.com/ankon07/medvault-ai-sub000/internal/remote"

	"go.uber.org/zap"
)

// GracePeriod time after a slot's nominal hour before its doses count as missed
const GracePeriod = time.Hour

// Result outcome of one detector pass
type Result struct {
	ProfileID     string
	Date          string
	EligibleSlots []models.TimeSlot
	Missed        []models.MissedDose
	Suppressed    int // misses already notified in an earlier pass (dedup only)
	Recipients    int
	Delivered     int
}

// Detector diffs the day's expected doses against taken events. It keeps no state of its
// own and reads everything from the remote store on each run.
type Detector struct {
	records  remote.RecordStore
	taken    remote.TakenEventStore
	family   notify.FamilyDirectory
	notifier notify.Notifier
	dedup    *Dedup
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a detector; loc is the calendar timezone (nil means time.Local)
func New(records remote.RecordStore, taken remote.TakenEventStore, family notify.FamilyDirectory, notifier notify.Notifier, loc *time.Location, logger *zap.Logger) *Detector {
	if loc == nil {
		loc = time.Local
	}
	return &Detector{
		records:  records,
		taken:    taken,
		family:   family,
		notifier: notifier,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the time source
func (d *Detector) SetClock(now func() time.Time) {
	d.now = now
}

// SetDedup enables once-per-slot notification; nil restores re-notifying on every run
func (d *Detector) SetDedup(dedup *Dedup) {
	d.dedup = dedup
}

// EligibleSlots slots whose grace period has elapsed at t (local hour >= slot hour + 1)
func EligibleSlots(t time.Time) []models.TimeSlot {
	graceHours := int(GracePeriod / time.Hour)
	slots := make([]models.TimeSlot, 0, len(models.AllTimeSlots))
	for _, slot := range models.AllTimeSlots {
		if t.Hour() >= slot.Hour()+graceHours {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Run evaluates today's doses for profileID and notifies the family when any are missed
func (d *Detector) Run(ctx context.Context, profileID string) (*Result, error) {
	if profileID == "" {
		return nil, models.ErrNotAuthenticated
	}

	now := d.now().In(d.location)
	result := &Result{
		ProfileID:     profileID,
		Date:          models.DateString(now, d.location),
		EligibleSlots: EligibleSlots(now),
	}
	if len(result.EligibleSlots) == 0 {
		return result, nil
	}

	records, err := d.records.GetAll(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	meds := medications(records)
	if len(meds) == 0 {
		return result, nil
	}

	events, err := d.taken.GetByDate(ctx, profileID, result.Date, result.EligibleSlots...)
	if err != nil {
		return nil, fmt.Errorf("failed to load taken medications: %w", err)
	}

	for _, slot := range result.EligibleSlots {
		for _, m := range meds {
			if takenIn(events, m.Name, slot, result.Date) {
				continue
			}
			result.Missed = append(result.Missed, models.MissedDose{
				MedicationName: m.Name,
				TimeSlot:       slot,
				SourceID:       m.sourceID,
				Dosage:         m.Dosage,
			})
		}
	}

	d.logger.Debug("Missed-dose evaluation finished",
		zap.String("profile_id", profileID),
		zap.String("date", result.Date),
		zap.Int("medications", len(meds)),
		zap.Int("missed", len(result.Missed)),
	)
	if len(result.Missed) == 0 {
		return result, nil
	}

	pending := result.Missed
	if d.dedup != nil {
		pending, err = d.dedup.Filter(ctx, profileID, result.Date, result.Missed)
		if err != nil {
			d.logger.Warn("Dedup check failed, notifying all misses", zap.Error(err))
			pending = result.Missed
		}
		result.Suppressed = len(result.Missed) - len(pending)
	}
	if len(pending) == 0 {
		return result, nil
	}

	d.notifyFamily(ctx, profileID, pending, result)
	return result, nil
}

func (d *Detector) notifyFamily(ctx context.Context, profileID string, missed []models.MissedDose, result *Result) {
	if d.family == nil || d.notifier == nil {
		return
	}
	members, err := notify.Roster(ctx, d.family, profileID)
	if err != nil {
		d.logger.Warn("Skipping missed-dose notification", zap.String("profile_id", profileID), zap.Error(err))
		return
	}
	if len(members) == 0 {
		return
	}

	n := notify.NewNotification(
		models.NotificationDosesMissed,
		profileID,
		"Missed medications",
		summarize(missed),
		map[string]interface{}{
			"profile_id": profileID,
			"date":       result.Date,
			"missed":     missed,
		},
	)
	result.Recipients = len(members)
	result.Delivered = notify.Broadcast(ctx, d.notifier, members, n, d.logger)

	d.logger.Info("Missed-dose notification sent",
		zap.String("profile_id", profileID),
		zap.Int("missed", len(missed)),
		zap.Int("recipients", result.Recipients),
		zap.Int("delivered", result.Delivered),
	)
}

type medication struct {
	models.Medication
	sourceID string
}

// medications one entry per name; records arrive newest first, so the newest record wins
func medications(records []models.Record) []medication {
	sorted := append([]models.Record(nil), records...)
	models.SortRecords(sorted)

	seen := make(map[string]struct{})
	out := make([]medication, 0)
	for _, r := range sorted {
		for _, m := range r.Analysis.Medications {
			if m.Name == "" {
				continue
			}
			if _, ok := seen[m.Name]; ok {
				continue
			}
			seen[m.Name] = struct{}{}
			out = append(out, medication{Medication: m, sourceID: r.ID})
		}
	}
	return out
}

func takenIn(events []models.TakenMedicationEvent, name string, slot models.TimeSlot, date string) bool {
	for _, e := range events {
		if e.Matches(name, slot, date) {
			return true
		}
	}
	return false
}

func summarize(missed []models.MissedDose) string {
	parts := make([]string, 0, len(missed))
	for _, m := range missed {
		parts = append(parts, fmt.Sprintf("%s (%s)", m.MedicationName, m.TimeSlot))
	}
	return fmt.Sprintf("%d dose(s) not taken: %s", len(missed), strings.Join(parts, ", "))
}
