package domain

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTenant, RoleLandlord:
		return Role(s), true
	}
	return "", false
}

// Verification is the identity record kept by the verification service.
type Verification struct {
	UserID   int    `json:"userId"`
	Verified bool   `json:"verified"`
	Age      int    `json:"age"`
	Gender   Gender `json:"gender"`
}
