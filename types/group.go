package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Group represents a prospective co-tenant household: a set of users with
// pending or active membership gathered around one listing.
type Group struct {
	// ID is the unique identifier of the group.
	ID int `json:"group_id" db:"id"`

	// Name is the display name of the group.
	Name string `json:"name" db:"name"`

	// Description is a free-form pitch shown to prospective members.
	Description string `json:"description" db:"description"`

	// ListingID references the listing the group wants to co-rent.
	ListingID int `json:"listing_id" db:"listing_id"`

	// OwnerID references the user who created the group. Exactly one
	// user owns a group; the owner is always an active member.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// Members holds the current membership roster. Rejected and removed
	// members are deleted, not retained in a terminal state.
	Members []GroupMember `json:"members" db:"-"`

	// LifestylePreference is the household-level agreement blob
	// (rent split, quiet hours, signing readiness). Nil when never set.
	LifestylePreference *LifestylePreference `json:"lifestyle_preference" db:"lifestyle_preference"`

	// CreatedAt is the timestamp at which the group was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GroupMember is one user's membership record within a group.
type GroupMember struct {
	UserID   int          `json:"user_id" db:"user_id"`
	Name     string       `json:"name" db:"name"`
	Surname  string       `json:"surname" db:"surname"`
	Username string       `json:"username" db:"username"`
	Status   MemberStatus `json:"status" db:"status"`
}

// LifestylePreference captures household agreements negotiated by a group.
type LifestylePreference struct {
	// RentDivision maps member user IDs to their rent share percentage.
	RentDivision map[int]float64 `json:"rent_division,omitempty"`

	// QuietHours is the agreed daily quiet interval.
	QuietHours *QuietHours `json:"quiet_hours,omitempty"`

	// ReadyToSign lists member user IDs that confirmed readiness to sign.
	ReadyToSign []int `json:"ready_to_sign,omitempty"`
}

// MemberStatus is the membership state of a user within a group.
// A member is exactly one of pending or active; rejection and removal
// delete the membership record rather than park it in a terminal state.
type MemberStatus int

const (
	// StatusPending indicates a join request awaiting the owner's decision.
	StatusPending MemberStatus = iota

	// StatusActive indicates an approved, current member.
	StatusActive
)

// ParseMemberStatus maps the wire representation back to a MemberStatus.
func ParseMemberStatus(raw string) (MemberStatus, error) {
	switch raw {
	case "pending":
		return StatusPending, nil
	case "active":
		return StatusActive, nil
	default:
		return StatusPending, fmt.Errorf("unknown member status %q", raw)
	}
}

// String returns the wire representation of the status.
func (s MemberStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

func (s MemberStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *MemberStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status, err := ParseMemberStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
