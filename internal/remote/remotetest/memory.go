// Package remotetest provides an in-process remote store for tests.
package remotetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
	"github.com/ankon07/medvault-ai-sub000/internal/remote"
)

// MemoryStore in-process remote store holding all three partitions.
// Subscribers get the current partition synchronously on Subscribe and after every write.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]map[string]models.Record
	taken    map[string][]models.TakenMedicationEvent
	labTests map[string]map[string]models.LabTest
	subs     []*memorySub
	writes   map[string]int
	failures map[string]error
	paused   map[string]bool
	// BeforeGetAll runs at the start of every record GetAll (for pausing callers in tests)
	BeforeGetAll func(profileID string)
}

type memorySub struct {
	kind      string
	profileID string
	deliver   func()
	fail      func(error)
	active    bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]map[string]models.Record),
		taken:    make(map[string][]models.TakenMedicationEvent),
		labTests: make(map[string]map[string]models.LabTest),
		writes:   make(map[string]int),
		failures: make(map[string]error),
		paused:   make(map[string]bool),
	}
}

// Records remote.RecordStore view
func (s *MemoryStore) Records() remote.RecordStore { return memoryRecords{s} }

// Taken remote.TakenEventStore view
func (s *MemoryStore) Taken() remote.TakenEventStore { return memoryTaken{s} }

// LabTests remote.LabTestStore view
func (s *MemoryStore) LabTests() remote.LabTestStore { return memoryLabTests{s} }

// Fail makes every subsequent operation on kind return err (nil clears)
func (s *MemoryStore) Fail(kind string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, kind)
		return
	}
	s.failures[kind] = err
}

// Writes number of successful writes to a partition
func (s *MemoryStore) Writes(kind, profileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[kind+":"+profileID]
}

// ActiveSubscriptions live subscriptions on a partition
func (s *MemoryStore) ActiveSubscriptions(kind, profileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sub := range s.subs {
		if sub.active && sub.kind == kind && sub.profileID == profileID {
			n++
		}
	}
	return n
}

// DeliverLate pushes the partition to subscriptions that were already cancelled,
// as a push racing with unsubscribe would.
func (s *MemoryStore) DeliverLate(kind, profileID string) {
	s.mu.Lock()
	var targets []*memorySub
	for _, sub := range s.subs {
		if !sub.active && sub.kind == kind && sub.profileID == profileID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()
	for _, sub := range targets {
		sub.deliver()
	}
}

// Break reports err to the live subscriptions of a partition, as a dropped connection would
func (s *MemoryStore) Break(kind, profileID string, err error) {
	s.mu.Lock()
	var targets []*memorySub
	for _, sub := range s.subs {
		if sub.active && sub.kind == kind && sub.profileID == profileID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()
	for _, sub := range targets {
		sub.fail(err)
	}
}

// SeedRecord stores r without counting a write or notifying subscribers
func (s *MemoryStore) SeedRecord(profileID string, r models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[profileID] == nil {
		s.records[profileID] = make(map[string]models.Record)
	}
	r.ProfileID = profileID
	r.Analysis = r.Analysis.Clone()
	s.records[profileID][r.ID] = r
}

func (s *MemoryStore) failure(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[kind]
}

func (s *MemoryStore) subscribe(kind, profileID string, deliver func(), onError func(error)) remote.Unsubscribe {
	sub := &memorySub{kind: kind, profileID: profileID, deliver: deliver, fail: onError, active: true}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	err := s.failures[kind]
	s.mu.Unlock()

	if err != nil {
		onError(err)
	} else {
		deliver()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			sub.active = false
			s.mu.Unlock()
		})
	}
}

// Pause holds back pushes for a partition until Resume, as a slow change feed would.
// Writes still land immediately.
func (s *MemoryStore) Pause(kind, profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused[kind+":"+profileID] = true
}

// Resume releases a paused partition and pushes its current state to live subscribers
func (s *MemoryStore) Resume(kind, profileID string) {
	s.mu.Lock()
	delete(s.paused, kind+":"+profileID)
	targets := s.liveLocked(kind, profileID)
	s.mu.Unlock()
	for _, sub := range targets {
		sub.deliver()
	}
}

func (s *MemoryStore) liveLocked(kind, profileID string) []*memorySub {
	var targets []*memorySub
	for _, sub := range s.subs {
		if sub.active && sub.kind == kind && sub.profileID == profileID {
			targets = append(targets, sub)
		}
	}
	return targets
}

// committed counts the write and pushes to live subscribers, outside the lock
func (s *MemoryStore) committed(kind, profileID string) {
	s.mu.Lock()
	s.writes[kind+":"+profileID]++
	var targets []*memorySub
	if !s.paused[kind+":"+profileID] {
		targets = s.liveLocked(kind, profileID)
	}
	s.mu.Unlock()
	for _, sub := range targets {
		sub.deliver()
	}
}

type memoryRecords struct{ s *MemoryStore }

func (m memoryRecords) Create(_ context.Context, profileID string, record *models.Record) error {
	if err := m.s.failure(remote.KindRecords); err != nil {
		return err
	}
	m.s.mu.Lock()
	if m.s.records[profileID] == nil {
		m.s.records[profileID] = make(map[string]models.Record)
	}
	if _, ok := m.s.records[profileID][record.ID]; ok {
		m.s.mu.Unlock()
		return fmt.Errorf("record %s: %w", record.ID, models.ErrAlreadyExists)
	}
	stored := *record
	stored.ProfileID = profileID
	stored.Analysis = record.Analysis.Clone()
	m.s.records[profileID][record.ID] = stored
	m.s.mu.Unlock()

	m.s.committed(remote.KindRecords, profileID)
	return nil
}

func (m memoryRecords) GetAll(_ context.Context, profileID string) ([]models.Record, error) {
	if hook := m.s.BeforeGetAll; hook != nil {
		hook(profileID)
	}
	if err := m.s.failure(remote.KindRecords); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]models.Record, 0, len(m.s.records[profileID]))
	for _, r := range m.s.records[profileID] {
		r.Analysis = r.Analysis.Clone()
		out = append(out, r)
	}
	models.SortRecords(out)
	return out, nil
}

func (m memoryRecords) GetByID(_ context.Context, profileID, recordID string) (*models.Record, error) {
	if err := m.s.failure(remote.KindRecords); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.records[profileID][recordID]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", recordID, models.ErrNotFound)
	}
	r.Analysis = r.Analysis.Clone()
	return &r, nil
}

func (m memoryRecords) Update(_ context.Context, profileID, recordID string, patch models.RecordPatch) error {
	if err := m.s.failure(remote.KindRecords); err != nil {
		return err
	}
	m.s.mu.Lock()
	r, ok := m.s.records[profileID][recordID]
	if !ok {
		m.s.mu.Unlock()
		return fmt.Errorf("record %s: %w", recordID, models.ErrNotFound)
	}
	m.s.records[profileID][recordID] = patch.Apply(r)
	m.s.mu.Unlock()

	m.s.committed(remote.KindRecords, profileID)
	return nil
}

func (m memoryRecords) Delete(_ context.Context, profileID, recordID string) error {
	if err := m.s.failure(remote.KindRecords); err != nil {
		return err
	}
	m.s.mu.Lock()
	if _, ok := m.s.records[profileID][recordID]; !ok {
		m.s.mu.Unlock()
		return fmt.Errorf("record %s: %w", recordID, models.ErrNotFound)
	}
	delete(m.s.records[profileID], recordID)
	m.s.mu.Unlock()

	m.s.committed(remote.KindRecords, profileID)
	return nil
}

func (m memoryRecords) Subscribe(profileID string, onChange func([]models.Record), onError func(error)) remote.Unsubscribe {
	return m.s.subscribe(remote.KindRecords, profileID, func() {
		m.s.mu.Lock()
		out := make([]models.Record, 0, len(m.s.records[profileID]))
		for _, r := range m.s.records[profileID] {
			r.Analysis = r.Analysis.Clone()
			out = append(out, r)
		}
		m.s.mu.Unlock()
		onChange(out)
	}, onError)
}

type memoryTaken struct{ s *MemoryStore }

func (m memoryTaken) Create(_ context.Context, profileID string, event *models.TakenMedicationEvent) error {
	if err := m.s.failure(remote.KindTaken); err != nil {
		return err
	}
	m.s.mu.Lock()
	stored := *event
	stored.ProfileID = profileID
	m.s.taken[profileID] = append(m.s.taken[profileID], stored)
	m.s.mu.Unlock()

	m.s.committed(remote.KindTaken, profileID)
	return nil
}

func (m memoryTaken) GetAll(_ context.Context, profileID string) ([]models.TakenMedicationEvent, error) {
	return m.filter(profileID, func(models.TakenMedicationEvent) bool { return true })
}

func (m memoryTaken) GetByDate(_ context.Context, profileID, date string, slots ...models.TimeSlot) ([]models.TakenMedicationEvent, error) {
	return m.filter(profileID, func(e models.TakenMedicationEvent) bool {
		if e.Date != date {
			return false
		}
		if len(slots) == 0 {
			return true
		}
		for _, slot := range slots {
			if e.TimeSlot == slot {
				return true
			}
		}
		return false
	})
}

func (m memoryTaken) GetBetween(_ context.Context, profileID, from, to string) ([]models.TakenMedicationEvent, error) {
	return m.filter(profileID, func(e models.TakenMedicationEvent) bool {
		return e.Date >= from && e.Date <= to
	})
}

func (m memoryTaken) filter(profileID string, keep func(models.TakenMedicationEvent) bool) ([]models.TakenMedicationEvent, error) {
	if err := m.s.failure(remote.KindTaken); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]models.TakenMedicationEvent, 0)
	for _, e := range m.s.taken[profileID] {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memoryTaken) Subscribe(profileID string, onChange func([]models.TakenMedicationEvent), onError func(error)) remote.Unsubscribe {
	return m.s.subscribe(remote.KindTaken, profileID, func() {
		m.s.mu.Lock()
		out := append([]models.TakenMedicationEvent(nil), m.s.taken[profileID]...)
		m.s.mu.Unlock()
		onChange(out)
	}, onError)
}

type memoryLabTests struct{ s *MemoryStore }

func (m memoryLabTests) Create(_ context.Context, profileID string, test *models.LabTest) error {
	if err := m.s.failure(remote.KindLabTests); err != nil {
		return err
	}
	m.s.mu.Lock()
	if m.s.labTests[profileID] == nil {
		m.s.labTests[profileID] = make(map[string]models.LabTest)
	}
	stored := *test
	stored.ProfileID = profileID
	m.s.labTests[profileID][test.ID] = stored
	m.s.mu.Unlock()

	m.s.committed(remote.KindLabTests, profileID)
	return nil
}

func (m memoryLabTests) GetAll(_ context.Context, profileID string) ([]models.LabTest, error) {
	if err := m.s.failure(remote.KindLabTests); err != nil {
		return nil, err
	}
	return m.snapshot(profileID), nil
}

func (m memoryLabTests) Delete(_ context.Context, profileID, labTestID string) error {
	if err := m.s.failure(remote.KindLabTests); err != nil {
		return err
	}
	m.s.mu.Lock()
	if _, ok := m.s.labTests[profileID][labTestID]; !ok {
		m.s.mu.Unlock()
		return fmt.Errorf("lab test %s: %w", labTestID, models.ErrNotFound)
	}
	delete(m.s.labTests[profileID], labTestID)
	m.s.mu.Unlock()

	m.s.committed(remote.KindLabTests, profileID)
	return nil
}

func (m memoryLabTests) Subscribe(profileID string, onChange func([]models.LabTest), onError func(error)) remote.Unsubscribe {
	return m.s.subscribe(remote.KindLabTests, profileID, func() {
		onChange(m.snapshot(profileID))
	}, onError)
}

func (m memoryLabTests) snapshot(profileID string) []models.LabTest {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]models.LabTest, 0, len(m.s.labTests[profileID]))
	for _, t := range m.s.labTests[profileID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
