package models

import "time"

// Payment is an append-only ledger entry recording money received from a
// pupil against a fee structure.
type Payment struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()" validate:"required,uuid"`
	PupilID       string    `json:"pupil_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	FeeID         string    `json:"fee_id" gorm:"not null;index;type:uuid" validate:"required,uuid"`
	Amount        float64   `json:"amount" gorm:"not null;type:decimal(12,2)" validate:"required,gt=0"`
	PaymentDate   time.Time `json:"payment_date" gorm:"not null;index" validate:"required"`
	PaymentMethod string    `json:"payment_method" gorm:"type:varchar(50)"`
	Reference     *string   `json:"reference,omitempty" gorm:"index"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
