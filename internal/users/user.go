package users

import "time"

// Profile is the free-form part of a user account, stored as JSONB.
type Profile struct {
	DisplayName  string   `json:"displayName,omitempty"`
	HeightCm     float64  `json:"heightCm,omitempty"`
	WeightKg     float64  `json:"weightKg,omitempty"`
	FitnessLevel string   `json:"fitnessLevel,omitempty"`
	Goals        []string `json:"goals,omitempty"`
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"createdAt"`
}
