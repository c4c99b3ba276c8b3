package notify

import (
	"context"
	"fmt"

	"github.com/ankon07/medvault-ai-sub000/internal/models"
)

// FamilyDirectory read-only membership lookup (implemented by repository.FamilyRepository)
type FamilyDirectory interface {
	GetFamilyForProfile(ctx context.Context, profileID string) (*models.Family, error)
	GetMemberProfileIDs(ctx context.Context, familyID string) ([]string, error)
}

// Roster returns every member profile of profileID's family, owner first.
// nil means the profile has no family.
func Roster(ctx context.Context, dir FamilyDirectory, profileID string) ([]string, error) {
	family, err := dir.GetFamilyForProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve family for %s: %w", profileID, err)
	}
	if family == nil {
		return nil, nil
	}
	ids, err := dir.GetMemberProfileIDs(ctx, family.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of family %s: %w", family.ID, err)
	}
	return ids, nil
}

// Except drops profileID from ids
func Except(ids []string, profileID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != profileID {
			out = append(out, id)
		}
	}
	return out
}
