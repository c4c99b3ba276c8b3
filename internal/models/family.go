package models

// Family role values
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Family profiles grouped under one owner (families table)
type Family struct {
	ID      string         `json:"id" db:"family_id"`
	Name    string         `json:"name" db:"family_name"`
	OwnerID string         `json:"owner_id" db:"owner_profile_id"`
	Members []FamilyMember `json:"members,omitempty"`
}

// FamilyMember family_members row
type FamilyMember struct {
	ProfileID   string `json:"profile_id" db:"profile_id"`
	Role        string `json:"role" db:"role"` // owner | member
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
}

// MemberProfileIDs owner first, then members in stored order, without duplicates
func (f *Family) MemberProfileIDs() []string {
	seen := make(map[string]struct{}, len(f.Members)+1)
	ids := make([]string, 0, len(f.Members)+1)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(f.OwnerID)
	for _, m := range f.Members {
		add(m.ProfileID)
	}
	return ids
}
