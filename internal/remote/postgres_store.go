package remote

import (
	"context"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

// recordsRepo persistence used by PostgresRecordStore (implemented by repository.RecordsRepository)
type recordsRepo interface {
	CreateRecord(ctx context.Context, profileID string, record *models.Record) error
	ListRecords(ctx context.Context, profileID string) ([]models.Record, error)
	GetRecord(ctx context.Context, profileID, recordID string) (*models.Record, error)
	UpdateRecord(ctx context.Context, profileID, recordID string, patch models.RecordPatch) error
	DeleteRecord(ctx context.Context, profileID, recordID string) error
}

// takenRepo implemented by repository.TakenMedicationsRepository
type takenRepo interface {
	CreateTakenEvent(ctx context.Context, profileID string, event *models.TakenMedicationEvent) error
	ListTakenEvents(ctx context.Context, profileID string) ([]models.TakenMedicationEvent, error)
	ListTakenEventsByDate(ctx context.Context, profileID, date string, slots []models.TimeSlot) ([]models.TakenMedicationEvent, error)
	ListTakenEventsBetween(ctx context.Context, profileID, from, to string) ([]models.TakenMedicationEvent, error)
}

// labTestsRepo implemented by repository.LabTestsRepository
type labTestsRepo interface {
	CreateLabTest(ctx context.Context, profileID string, test *models.LabTest) error
	ListLabTests(ctx context.Context, profileID string) ([]models.LabTest, error)
	DeleteLabTest(ctx context.Context, profileID, labTestID string) error
}

// PostgresRecordStore RecordStore = records table + change feed
type PostgresRecordStore struct {
	repo   recordsRepo
	feed   Feed
	logger *zap.Logger
}

// NewPostgresRecordStore creates the record store
func NewPostgresRecordStore(repo recordsRepo, feed Feed, logger *zap.Logger) *PostgresRecordStore {
	return &PostgresRecordStore{repo: repo, feed: feed, logger: logger}
}

func (s *PostgresRecordStore) Create(ctx context.Context, profileID string, record *models.Record) error {
	if err := s.repo.CreateRecord(ctx, profileID, record); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindRecords, profileID)
	return nil
}

func (s *PostgresRecordStore) GetAll(ctx context.Context, profileID string) ([]models.Record, error) {
	return s.repo.ListRecords(ctx, profileID)
}

func (s *PostgresRecordStore) GetByID(ctx context.Context, profileID, recordID string) (*models.Record, error) {
	return s.repo.GetRecord(ctx, profileID, recordID)
}

func (s *PostgresRecordStore) Update(ctx context.Context, profileID, recordID string, patch models.RecordPatch) error {
	if err := s.repo.UpdateRecord(ctx, profileID, recordID, patch); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindRecords, profileID)
	return nil
}

func (s *PostgresRecordStore) Delete(ctx context.Context, profileID, recordID string) error {
	if err := s.repo.DeleteRecord(ctx, profileID, recordID); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindRecords, profileID)
	return nil
}

func (s *PostgresRecordStore) Subscribe(profileID string, onChange func([]models.Record), onError func(error)) Unsubscribe {
	return watch(s.feed, KindRecords, profileID,
		func(ctx context.Context) ([]models.Record, error) { return s.repo.ListRecords(ctx, profileID) },
		onChange, onError, s.logger)
}

// PostgresTakenEventStore TakenEventStore = taken_medications table + change feed
type PostgresTakenEventStore struct {
	repo   takenRepo
	feed   Feed
	logger *zap.Logger
}

// NewPostgresTakenEventStore creates the taken-event store
func NewPostgresTakenEventStore(repo takenRepo, feed Feed, logger *zap.Logger) *PostgresTakenEventStore {
	return &PostgresTakenEventStore{repo: repo, feed: feed, logger: logger}
}

func (s *PostgresTakenEventStore) Create(ctx context.Context, profileID string, event *models.TakenMedicationEvent) error {
	if err := s.repo.CreateTakenEvent(ctx, profileID, event); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindTaken, profileID)
	return nil
}

func (s *PostgresTakenEventStore) GetAll(ctx context.Context, profileID string) ([]models.TakenMedicationEvent, error) {
	return s.repo.ListTakenEvents(ctx, profileID)
}

func (s *PostgresTakenEventStore) GetByDate(ctx context.Context, profileID, date string, slots ...models.TimeSlot) ([]models.TakenMedicationEvent, error) {
	return s.repo.ListTakenEventsByDate(ctx, profileID, date, slots)
}

func (s *PostgresTakenEventStore) GetBetween(ctx context.Context, profileID, from, to string) ([]models.TakenMedicationEvent, error) {
	return s.repo.ListTakenEventsBetween(ctx, profileID, from, to)
}

func (s *PostgresTakenEventStore) Subscribe(profileID string, onChange func([]models.TakenMedicationEvent), onError func(error)) Unsubscribe {
	return watch(s.feed, KindTaken, profileID,
		func(ctx context.Context) ([]models.TakenMedicationEvent, error) {
			return s.repo.ListTakenEvents(ctx, profileID)
		},
		onChange, onError, s.logger)
}

// PostgresLabTestStore LabTestStore = lab_tests table + change feed
type PostgresLabTestStore struct {
	repo   labTestsRepo
	feed   Feed
	logger *zap.Logger
}

// NewPostgresLabTestStore creates the lab-test store
func NewPostgresLabTestStore(repo labTestsRepo, feed Feed, logger *zap.Logger) *PostgresLabTestStore {
	return &PostgresLabTestStore{repo: repo, feed: feed, logger: logger}
}

func (s *PostgresLabTestStore) Create(ctx context.Context, profileID string, test *models.LabTest) error {
	if err := s.repo.CreateLabTest(ctx, profileID, test); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindLabTests, profileID)
	return nil
}

func (s *PostgresLabTestStore) GetAll(ctx context.Context, profileID string) ([]models.LabTest, error) {
	return s.repo.ListLabTests(ctx, profileID)
}

func (s *PostgresLabTestStore) Delete(ctx context.Context, profileID, labTestID string) error {
	if err := s.repo.DeleteLabTest(ctx, profileID, labTestID); err != nil {
		return err
	}
	signal(ctx, s.feed, s.logger, KindLabTests, profileID)
	return nil
}

func (s *PostgresLabTestStore) Subscribe(profileID string, onChange func([]models.LabTest), onError func(error)) Unsubscribe {
	return watch(s.feed, KindLabTests, profileID,
		func(ctx context.Context) ([]models.LabTest, error) { return s.repo.ListLabTests(ctx, profileID) },
		onChange, onError, s.logger)
}

// signal publishes a change after a committed write. A lost signal only delays the echo
// until the next change, so the write itself is still reported as successful.
func signal(ctx context.Context, feed Feed, logger *zap.Logger, kind, profileID string) {
	if err := feed.Publish(ctx, kind, profileID); err != nil {
		logger.Warn("Failed to publish change signal",
			zap.String("kind", kind),
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
	}
}
