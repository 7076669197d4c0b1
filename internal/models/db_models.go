package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserDB struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	SubjectID string    `bun:"subject_id,notnull,unique" json:"subject_id"`
	Email     string    `bun:"email,notnull" json:"email"`
	FirstName string    `bun:"first_name" json:"first_name"`
	LastName  string    `bun:"last_name" json:"last_name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (u *UserDB) ToUser() *User {
	return &User{
		ID:        u.ID,
		SubjectID: u.SubjectID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func UserFromDomain(u *User) *UserDB {
	return &UserDB{
		ID:        u.ID,
		SubjectID: u.SubjectID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type ModelDB struct {
	bun.BaseModel `bun:"table:models,alias:m"`

	ID          int64          `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64          `bun:"user_id,notnull" json:"user_id"`
	JobID       string         `bun:"job_id,notnull" json:"job_id"`
	Name        string         `bun:"name,notnull" json:"name"`
	TriggerWord string         `bun:"trigger_word,notnull" json:"trigger_word"`
	Status      ModelStatus    `bun:"status,notnull,default:'Processing'" json:"status"`
	Parameters  map[string]any `bun:"parameters,type:jsonb" json:"parameters,omitempty"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (m *ModelDB) ToModel() *Model {
	return &Model{
		ID:          m.ID,
		UserID:      m.UserID,
		JobID:       m.JobID,
		Name:        m.Name,
		TriggerWord: m.TriggerWord,
		Status:      m.Status,
		Parameters:  m.Parameters,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ModelFromDomain(m *Model) *ModelDB {
	return &ModelDB{
		ID:          m.ID,
		UserID:      m.UserID,
		JobID:       m.JobID,
		Name:        m.Name,
		TriggerWord: m.TriggerWord,
		Status:      m.Status,
		Parameters:  m.Parameters,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type GenerationDB struct {
	bun.BaseModel `bun:"table:generations,alias:g"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID         int64     `bun:"user_id,notnull" json:"user_id"`
	ModelID        int64     `bun:"model_id,notnull" json:"model_id"`
	Model          *ModelDB  `bun:"rel:belongs-to,join:model_id=id"`
	Prompt         string    `bun:"prompt,notnull" json:"prompt"`
	EnhancedPrompt *string   `bun:"enhanced_prompt" json:"enhanced_prompt,omitempty"`
	ImageURL       string    `bun:"image_url,notnull" json:"image_url"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (g *GenerationDB) ToGeneration() *Generation {
	return &Generation{
		ID:             g.ID,
		UserID:         g.UserID,
		ModelID:        g.ModelID,
		Prompt:         g.Prompt,
		EnhancedPrompt: g.EnhancedPrompt,
		ImageURL:       g.ImageURL,
		CreatedAt:      g.CreatedAt,
	}
}

func GenerationFromDomain(g *Generation) *GenerationDB {
	return &GenerationDB{
		ID:             g.ID,
		UserID:         g.UserID,
		ModelID:        g.ModelID,
		Prompt:         g.Prompt,
		EnhancedPrompt: g.EnhancedPrompt,
		ImageURL:       g.ImageURL,
		CreatedAt:      g.CreatedAt,
	}
}

type PaymentRecordDB struct {
	bun.BaseModel `bun:"table:payment_records,alias:p"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64     `bun:"user_id,notnull" json:"user_id"`
	ChargeRef   string    `bun:"charge_ref,notnull,unique" json:"charge_ref"`
	CustomerRef string    `bun:"customer_ref" json:"customer_ref"`
	Amount      int64     `bun:"amount,notnull" json:"amount"`
	Currency    string    `bun:"currency,notnull" json:"currency"`
	Status      string    `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (p *PaymentRecordDB) ToPaymentRecord() *PaymentRecord {
	return &PaymentRecord{
		ID:          p.ID,
		UserID:      p.UserID,
		ChargeRef:   p.ChargeRef,
		CustomerRef: p.CustomerRef,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func PaymentRecordFromDomain(p *PaymentRecord) *PaymentRecordDB {
	return &PaymentRecordDB{
		ID:          p.ID,
		UserID:      p.UserID,
		ChargeRef:   p.ChargeRef,
		CustomerRef: p.CustomerRef,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type PhotoDB struct {
	bun.BaseModel `bun:"table:photos,alias:ph"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	ObjectName string    `bun:"object_name,notnull" json:"object_name"`
	FileURL    string    `bun:"file_url,notnull" json:"file_url"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (p *PhotoDB) ToPhoto() *Photo {
	return &Photo{
		ID:         p.ID,
		UserID:     p.UserID,
		ObjectName: p.ObjectName,
		FileURL:    p.FileURL,
		CreatedAt:  p.CreatedAt,
	}
}

type AuditLogEntryDB struct {
	bun.BaseModel `bun:"table:audit_log,alias:a"`

	ID        int64          `bun:"id,pk,autoincrement" json:"id"`
	UserID    *int64         `bun:"user_id" json:"user_id,omitempty"`
	Action    string         `bun:"action,notnull" json:"action"`
	Details   map[string]any `bun:"details,type:jsonb" json:"details,omitempty"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (a *AuditLogEntryDB) ToAuditLogEntry() *AuditLogEntry {
	return &AuditLogEntry{
		ID:        a.ID,
		UserID:    a.UserID,
		Action:    a.Action,
		Details:   a.Details,
		CreatedAt: a.CreatedAt,
	}
}
