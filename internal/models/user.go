package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	SubjectID string    `json:"subject_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
