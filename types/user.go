package types

import "time"

// User represents an account in the system.
// It contains identity, contact details, role, and lifestyle preferences
// used for flatmate compatibility display.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"user_id" db:"id"`

	// Name is the user's given name.
	Name string `json:"name" db:"name"`

	// Surname is the user's family name.
	Surname string `json:"surname" db:"surname"`

	// Username is the unique handle chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across accounts and
	// used as the login credential.
	Email string `json:"email" db:"email"`

	// PhoneNumber is the user's contact phone number.
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// Role indicates the user's authorization level within the system
	// ("admin" or "user").
	Role string `json:"role" db:"role"`

	// Bio is a free-form self description shown on the profile page.
	Bio string `json:"bio" db:"bio"`

	// Preferences is the structured bag of lifestyle attributes attached
	// to the user for compatibility display. Nil when never set.
	Preferences *Preferences `json:"preferences" db:"preferences"`

	// Pets describes whether the user keeps pets and which species.
	// Nil when never set.
	Pets *Pets `json:"pets" db:"pets"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Preferences is the lifestyle attribute bag attached to a user profile
// or a listing for compatibility matching.
type Preferences struct {
	// Language lists the languages the user speaks or expects in the flat.
	Language []string `json:"language,omitempty"`

	// Nationality is a free-form nationality label.
	Nationality string `json:"nationality,omitempty"`

	// Smoking is true when smoking indoors is acceptable.
	Smoking bool `json:"smoking"`

	// PetFriendly is true when pets are welcome.
	PetFriendly bool `json:"pet_friendly"`

	// PartyFriendly is true when hosting parties indoors is acceptable.
	PartyFriendly bool `json:"party_friendly"`

	// Outgoing is true when the user describes themselves as socially active.
	Outgoing bool `json:"outgoing"`

	// PreferredSex lists the acceptable sexes of cohabitants.
	PreferredSex []string `json:"preferred_sex_to_live_with,omitempty"`

	// Religion is a free-form religion label.
	Religion string `json:"religion,omitempty"`

	// QuietHours is the preferred daily quiet interval. Nil when unset.
	QuietHours *QuietHours `json:"quiet_hours,omitempty"`

	// Vegan is true when the user prefers a vegan household.
	Vegan bool `json:"vegan"`
}

// QuietHours is a daily interval in "hh:mm" wall-clock format.
type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Pets describes pet ownership on a user profile.
type Pets struct {
	// HasPets is true when the user keeps at least one pet.
	HasPets bool `json:"has_pets"`

	// Species lists the kept species, e.g. "cat", "dog".
	Species []string `json:"species,omitempty"`
}

// UserSummary is the reduced user shape returned by list endpoints.
type UserSummary struct {
	ID       int    `json:"user_id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
