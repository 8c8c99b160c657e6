package store

import "time"

// Account is a local credential record. Password and security answer are
// stored as bcrypt hashes only.
type Account struct {
	ID                 int64     `json:"id"`
	PhoneNumber        string    `json:"phone_number"`
	PasswordHash       string    `json:"-"`
	SecurityQuestion   string    `json:"security_question"`
	SecurityAnswerHash string    `json:"-"`
	IsCurrent          bool      `json:"is_current"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HistoryEntry records the latest view of a phone by a user. Model and
// brand are copied at view time.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PhoneID    int64     `json:"phone_id"`
	ViewedAt   time.Time `json:"viewed_at"`
	PhoneModel string    `json:"phone_model"`
	PhoneBrand string    `json:"phone_brand"`
}
