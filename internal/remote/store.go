package remote

import (
	"context"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
)

// Unsubscribe releases a live subscription. Safe to call more than once.
type Unsubscribe func()

// RecordStore remote record partition per profile
type RecordStore interface {
	Create(ctx context.Context, profileID string, record *models.Record) error
	GetAll(ctx context.Context, profileID string) ([]models.Record, error)
	GetByID(ctx context.Context, profileID, recordID string) (*models.Record, error)
	Update(ctx context.Context, profileID, recordID string, patch models.RecordPatch) error
	Delete(ctx context.Context, profileID, recordID string) error
	// Subscribe delivers the full partition on start and after every change
	Subscribe(profileID string, onChange func([]models.Record), onError func(error)) Unsubscribe
}

// TakenEventStore remote taken-medication partition per profile
type TakenEventStore interface {
	Create(ctx context.Context, profileID string, event *models.TakenMedicationEvent) error
	GetAll(ctx context.Context, profileID string) ([]models.TakenMedicationEvent, error)
	GetByDate(ctx context.Context, profileID, date string, slots ...models.TimeSlot) ([]models.TakenMedicationEvent, error)
	GetBetween(ctx context.Context, profileID, from, to string) ([]models.TakenMedicationEvent, error)
	Subscribe(profileID string, onChange func([]models.TakenMedicationEvent), onError func(error)) Unsubscribe
}

// LabTestStore remote lab-test partition per profile
type LabTestStore interface {
	Create(ctx context.Context, profileID string, test *models.LabTest) error
	GetAll(ctx context.Context, profileID string) ([]models.LabTest, error)
	Delete(ctx context.Context, profileID, labTestID string) error
	Subscribe(profileID string, onChange func([]models.LabTest), onError func(error)) Unsubscribe
}

// Partition kinds used in feed channel names
const (
	KindRecords  = "records"
	KindTaken    = "taken"
	KindLabTests = "lab_tests"
)
