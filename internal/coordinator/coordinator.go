package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
	"github.com/ankon07/medvault-ai-sub000/internal/remote"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalCache durable on-device record cache (implemented by localcache.Cache)
type LocalCache interface {
	GetAll(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, record models.Record) error
	Update(ctx context.Context, id string, patch models.RecordPatch) error
	Delete(ctx context.Context, id string) error
}

// Phase activation state of a Coordinator
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActivating
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseActivating:
		return "activating"
	case PhaseActive:
		return "active"
	default:
		return "idle"
	}
}

// Snapshot copy of the coordinator's visible state
type Snapshot struct {
	Phase       Phase
	ProfileID   string
	Records     []models.Record
	TakenEvents []models.TakenMedicationEvent
	LabTests    []models.LabTest
	IsLoading   bool
	IsSyncing   bool
	LastError   string
}

// Coordinator owns the in-memory view of the active profile's partitions.
// The view is written only by subscription pushes; mutations go to the remote store
// and come back through the subscription.
type Coordinator struct {
	records  remote.RecordStore
	taken    remote.TakenEventStore
	labTests remote.LabTestStore
	cache    LocalCache
	logger   *zap.Logger

	mu         sync.Mutex
	phase      Phase
	profileID  string
	generation uint64
	unsubs     []remote.Unsubscribe
	view       Snapshot
	listeners  map[int]func(Snapshot)
	nextListen int

	// serializes medication read-modify-writes
	medMu sync.Mutex
}

// New creates an idle coordinator
func New(records remote.RecordStore, taken remote.TakenEventStore, labTests remote.LabTestStore, cache LocalCache, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		records:   records,
		taken:     taken,
		labTests:  labTests,
		cache:     cache,
		logger:    logger,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Activate binds the coordinator to profileID: reconciles the local cache into the remote
// store, then subscribes to the profile's records, taken events and lab tests.
// A call while another activation is running, or for the already bound profile, is a no-op.
func (c *Coordinator) Activate(ctx context.Context, profileID string) error {
	return c.activate(ctx, profileID, false)
}

// SwitchProfile rebinds to profileID even if it is the bound profile.
// Returns ErrActivationInFlight while an activation is running.
func (c *Coordinator) SwitchProfile(ctx context.Context, profileID string) error {
	return c.activate(ctx, profileID, true)
}

func (c *Coordinator) activate(ctx context.Context, profileID string, explicit bool) error {
	if profileID == "" {
		return models.ErrNotAuthenticated
	}

	c.mu.Lock()
	switch {
	case c.phase == PhaseActivating && explicit:
		c.mu.Unlock()
		return models.ErrActivationInFlight
	case c.phase == PhaseActivating:
		c.mu.Unlock()
		c.logger.Debug("Activation already in flight, ignoring", zap.String("profile_id", profileID))
		return nil
	case c.phase == PhaseActive && c.profileID == profileID && !explicit:
		c.mu.Unlock()
		return nil
	}

	stale := c.unsubs
	c.unsubs = nil
	if c.profileID != profileID {
		c.view = Snapshot{}
	}
	c.generation++
	gen := c.generation
	c.phase = PhaseActivating
	c.profileID = profileID
	c.view.IsLoading = true
	c.view.IsSyncing = true
	c.view.LastError = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()

	for _, unsub := range stale {
		unsub()
	}
	c.publish(snap)

	c.logger.Info("Activating profile", zap.String("profile_id", profileID))

	// the guard is released on every exit path below
	defer c.finishActivation(gen)

	pushed, err := c.Reconcile(ctx, profileID)
	if err != nil {
		c.logger.Warn("Reconciliation failed, subscribing anyway",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
	} else if pushed > 0 {
		c.logger.Info("Reconciled offline records",
			zap.String("profile_id", profileID),
			zap.Int("pushed", pushed),
		)
	}

	if !c.current(gen) {
		return nil
	}

	unsubs := []remote.Unsubscribe{
		c.records.Subscribe(profileID, c.onRecords(gen), c.onError(gen, remote.KindRecords)),
		c.taken.Subscribe(profileID, c.onTaken(gen), c.onError(gen, remote.KindTaken)),
		c.labTests.Subscribe(profileID, c.onLabTests(gen), c.onError(gen, remote.KindLabTests)),
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		for _, unsub := range unsubs {
			unsub()
		}
		return nil
	}
	c.unsubs = unsubs
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) finishActivation(gen uint64) {
	c.mu.Lock()
	if c.generation != gen || c.phase != PhaseActivating {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseActive
	c.view.IsSyncing = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// Teardown releases every subscription and clears all state. Safe when idle.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	stale := c.unsubs
	c.unsubs = nil
	c.generation++
	c.phase = PhaseIdle
	c.profileID = ""
	c.view = Snapshot{}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	for _, unsub := range stale {
		unsub()
	}
	c.publish(snap)
}

func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// apply runs fn against the view if gen is still the live binding, then notifies listeners
func (c *Coordinator) apply(gen uint64, fn func(v *Snapshot)) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	fn(&c.view)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
}

func (c *Coordinator) onRecords(gen uint64) func([]models.Record) {
	return func(records []models.Record) {
		sorted := append([]models.Record(nil), records...)
		models.SortRecords(sorted)
		c.apply(gen, func(v *Snapshot) {
			v.Records = sorted
			v.IsLoading = false
			v.LastError = ""
		})
	}
}

func (c *Coordinator) onTaken(gen uint64) func([]models.TakenMedicationEvent) {
	return func(events []models.TakenMedicationEvent) {
		copied := append([]models.TakenMedicationEvent(nil), events...)
		c.apply(gen, func(v *Snapshot) { v.TakenEvents = copied })
	}
}

func (c *Coordinator) onLabTests(gen uint64) func([]models.LabTest) {
	return func(tests []models.LabTest) {
		copied := append([]models.LabTest(nil), tests...)
		c.apply(gen, func(v *Snapshot) { v.LabTests = copied })
	}
}

// onError keeps the last known partition and flags offline mode
func (c *Coordinator) onError(gen uint64, kind string) func(error) {
	return func(err error) {
		c.apply(gen, func(v *Snapshot) {
			c.logger.Warn("Subscription error, keeping cached data",
				zap.String("kind", kind),
				zap.String("profile_id", c.profileID),
				zap.Error(err),
			)
			if kind == remote.KindRecords {
				v.IsLoading = false
			}
			v.LastError = models.OfflineMessage
		})
	}
}

// AddListener registers fn for every state change; the returned func removes it
func (c *Coordinator) AddListener(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextListen
	c.nextListen++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) publish(snap Snapshot) {
	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := c.view
	s.Phase = c.phase
	s.ProfileID = c.profileID
	s.Records = append([]models.Record(nil), c.view.Records...)
	s.TakenEvents = append([]models.TakenMedicationEvent(nil), c.view.TakenEvents...)
	s.LabTests = append([]models.LabTest(nil), c.view.LabTests...)
	return s
}

// Snapshot returns a copy of the visible state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ActiveProfile bound (or binding) profile, "" when idle
func (c *Coordinator) ActiveProfile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profileID
}

// Records newest first
func (c *Coordinator) Records() []models.Record {
	return c.Snapshot().Records
}

// TakenEvents taken events of the active profile as last pushed
func (c *Coordinator) TakenEvents() []models.TakenMedicationEvent {
	return c.Snapshot().TakenEvents
}

// LabTests lab tests of the active profile as last pushed
func (c *Coordinator) LabTests() []models.LabTest {
	return c.Snapshot().LabTests
}

// LastError user-facing error text, "" when online
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.LastError
}

func (c *Coordinator) requireProfile() (string, error) {
	profileID := c.ActiveProfile()
	if profileID == "" {
		return "", models.ErrNotAuthenticated
	}
	return profileID, nil
}

// SaveOffline keeps a record captured before sign-in in the local cache, with no owner.
// The next activation pushes it into that profile's partition. With a profile bound it
// is the same as Append.
func (c *Coordinator) SaveOffline(ctx context.Context, record *models.Record) error {
	if c.ActiveProfile() != "" {
		return c.Append(ctx, record)
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.ProfileID = ""
	for i := range record.Analysis.Medications {
		record.Analysis.Medications[i].NormalizePills()
	}
	if err := c.cache.Save(ctx, *record); err != nil {
		return fmt.Errorf("failed to save offline record: %w", err)
	}
	return nil
}

// Append creates record in the active profile's partition and mirrors it to the local cache
func (c *Coordinator) Append(ctx context.Context, record *models.Record) error {
	profileID, err := c.requireProfile()
	if err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.ProfileID = profileID
	for i := range record.Analysis.Medications {
		record.Analysis.Medications[i].NormalizePills()
	}

	if err := c.records.Create(ctx, profileID, record); err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	if err := c.cache.Save(ctx, *record); err != nil {
		c.logger.Warn("Failed to mirror record to local cache",
			zap.String("record_id", record.ID),
			zap.Error(err),
		)
	}
	return nil
}

// Mutate patches a record of the active profile
func (c *Coordinator) Mutate(ctx context.Context, recordID string, patch models.RecordPatch) error {
	profileID, err := c.requireProfile()
	if err != nil {
		return err
	}
	return c.update(ctx, profileID, recordID, patch)
}

func (c *Coordinator) update(ctx context.Context, profileID, recordID string, patch models.RecordPatch) error {
	if err := c.records.Update(ctx, profileID, recordID, patch); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if err := c.cache.Update(ctx, recordID, patch); err != nil {
		c.logger.Debug("Local cache not updated",
			zap.String("record_id", recordID),
			zap.Error(err),
		)
	}
	return nil
}

// Remove deletes a record of the active profile
func (c *Coordinator) Remove(ctx context.Context, recordID string) error {
	profileID, err := c.requireProfile()
	if err != nil {
		return err
	}
	if err := c.records.Delete(ctx, profileID, recordID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if err := c.cache.Delete(ctx, recordID); err != nil {
		c.logger.Warn("Failed to delete record from local cache",
			zap.String("record_id", recordID),
			zap.Error(err),
		)
	}
	return nil
}

// AddLabTest creates a lab test in the active profile's partition
func (c *Coordinator) AddLabTest(ctx context.Context, test *models.LabTest) error {
	profileID, err := c.requireProfile()
	if err != nil {
		return err
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}
	test.ProfileID = profileID
	if err := c.labTests.Create(ctx, profileID, test); err != nil {
		return fmt.Errorf("failed to create lab test: %w", err)
	}
	return nil
}

// RemoveLabTest deletes a lab test of the active profile
func (c *Coordinator) RemoveLabTest(ctx context.Context, labTestID string) error {
	profileID, err := c.requireProfile()
	if err != nil {
		return err
	}
	if err := c.labTests.Delete(ctx, profileID, labTestID); err != nil {
		return fmt.Errorf("failed to delete lab test: %w", err)
	}
	return nil
}
