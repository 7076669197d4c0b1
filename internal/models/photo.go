package models

import "time"

type Photo struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ObjectName string    `json:"object_name"`
	FileURL    string    `json:"file_url"`
	CreatedAt  time.Time `json:"created_at"`
}
