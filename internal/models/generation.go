package models

import "time"

type Generation struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ModelID        int64     `json:"model_id"`
	Prompt         string    `json:"prompt"`
	EnhancedPrompt *string   `json:"enhanced_prompt,omitempty"`
	ImageURL       string    `json:"image_url"`
	CreatedAt      time.Time `json:"created_at"`
}
