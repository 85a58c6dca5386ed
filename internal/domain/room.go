package domain

import "time"

// Room is the sharing-relevant projection of a rentable unit. Rooms are created
// by landlords through the marketplace backend; this service only flips the
// sharing flag.
type Room struct {
	ID             int       `json:"id" db:"id"`
	LandlordID     int       `json:"landlordId" db:"landlord_id"`
	OccupantID     *int      `json:"occupantId" db:"occupant_id"`
	SharingEnabled bool      `json:"sharingEnabled" db:"sharing_enabled"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

func (r *Room) IsOccupant(userID int) bool {
	return r.OccupantID != nil && *r.OccupantID == userID
}

// RoomSummary is display-only enrichment fetched from the listing service.
type RoomSummary struct {
	RoomNumber   string `json:"roomNumber"`
	BuildingName string `json:"buildingName"`
	Address      string `json:"address"`
}
