package domain

import (
	"sort"
	"strings"
	"time"
)

type GenderPreference string

const (
	GenderPreferenceMale   GenderPreference = "male"
	GenderPreferenceFemale GenderPreference = "female"
	GenderPreferenceAny    GenderPreference = "any"
)

func (g GenderPreference) Valid() bool {
	switch g {
	case GenderPreferenceMale, GenderPreferenceFemale, GenderPreferenceAny:
		return true
	}
	return false
}

// RequirementsRecord holds what the poster wants in a co-tenant plus the
// poster's own declared traits. PosterAge and PosterGender are copied from the
// verification service and never from client input.
type RequirementsRecord struct {
	ID               int              `json:"id" db:"id"`
	RoomID           int              `json:"roomId" db:"room_id"`
	PosterID         int              `json:"posterId" db:"poster_id"`
	AgeMin           int              `json:"ageMin" db:"age_min"`
	AgeMax           int              `json:"ageMax" db:"age_max"`
	GenderPreference GenderPreference `json:"genderPreference" db:"gender_preference"`
	DesiredTraits    []string         `json:"desiredTraits" db:"desired_traits"`
	MaxPrice         float64          `json:"maxPrice" db:"max_price"`
	PosterTraits     []string         `json:"posterTraits" db:"poster_traits"`
	PosterAge        int              `json:"posterAge" db:"poster_age"`
	PosterGender     Gender           `json:"posterGender" db:"poster_gender"`
	IsActive         bool             `json:"isActive" db:"is_active"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// Validate checks the invariants that must hold before the record is written.
func (r *RequirementsRecord) Validate() error {
	if r.AgeMin <= 0 || r.AgeMax <= 0 {
		return NewValidationError("ageRange", "both bounds are required")
	}
	if r.AgeMin > r.AgeMax {
		return NewValidationError("ageRange", "min must not exceed max")
	}
	if !r.GenderPreference.Valid() {
		return NewValidationError("genderPreference", "must be one of male, female, any")
	}
	if r.MaxPrice < 0 {
		return NewValidationError("maxPrice", "must not be negative")
	}
	if len(r.PosterTraits) == 0 {
		return NewValidationError("posterTraits", "select at least one trait")
	}
	return nil
}

// NormalizeTraits turns a client-supplied list into a set: trimmed, without
// blanks or duplicates, sorted.
func NormalizeTraits(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
