package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"

	"go.uber.org/zap"
)

// FamilyRepository read-only family directory (families / family_members).
// Membership changes are made by the invite flow, not here.
type FamilyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFamilyRepository creates the family directory
func NewFamilyRepository(db *sql.DB, logger *zap.Logger) *FamilyRepository {
	return &FamilyRepository{
		db:     db,
		logger: logger,
	}
}

// GetFamilyForProfile returns the family the profile belongs to, or nil when the profile is solo
func (r *FamilyRepository) GetFamilyForProfile(ctx context.Context, profileID string) (*models.Family, error) {
	if profileID == "" {
		return nil, fmt.Errorf("profile_id is required")
	}

	query := `
		SELECT f.family_id, f.family_name, f.owner_profile_id
		FROM families f
		WHERE f.owner_profile_id = $1
		   OR EXISTS (
		       SELECT 1 FROM family_members m
		       WHERE m.family_id = f.family_id AND m.profile_id = $1
		   )
		ORDER BY (f.owner_profile_id = $1) DESC
		LIMIT 1
	`
	var family models.Family
	err := r.db.QueryRowContext(ctx, query, profileID).Scan(&family.ID, &family.Name, &family.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query family: %w", err)
	}

	members, err := r.listMembers(ctx, family.ID)
	if err != nil {
		return nil, err
	}
	family.Members = members
	return &family, nil
}

// GetMemberProfileIDs owner first, then members
func (r *FamilyRepository) GetMemberProfileIDs(ctx context.Context, familyID string) ([]string, error) {
	if familyID == "" {
		return nil, fmt.Errorf("family_id is required")
	}

	var family models.Family
	err := r.db.QueryRowContext(ctx,
		`SELECT family_id, family_name, owner_profile_id FROM families WHERE family_id = $1`,
		familyID,
	).Scan(&family.ID, &family.Name, &family.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("family %s: %w", familyID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query family: %w", err)
	}

	members, err := r.listMembers(ctx, familyID)
	if err != nil {
		return nil, err
	}
	family.Members = members
	return family.MemberProfileIDs(), nil
}

func (r *FamilyRepository) listMembers(ctx context.Context, familyID string) ([]models.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, role, display_name
		FROM family_members
		WHERE family_id = $1
		ORDER BY joined_at
	`, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	members := make([]models.FamilyMember, 0)
	for rows.Next() {
		var m models.FamilyMember
		var displayName sql.NullString
		if err := rows.Scan(&m.ProfileID, &m.Role, &displayName); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		m.DisplayName = displayName.String
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}
	return members, nil
}
