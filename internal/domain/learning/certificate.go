package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is unique per (user, journey). VerificationCode is the public
// lookup key and is never derived from the user.
type Certificate struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_certificate_user_journey,unique,priority:1" json:"userId"`
	JourneyID         uint      `gorm:"column:journey_id;not null;index:idx_certificate_user_journey,unique,priority:2" json:"journeyId"`
	Journey           *Journey  `gorm:"constraint:OnDelete:CASCADE;foreignKey:JourneyID;references:ID" json:"journey,omitempty"`
	CertificateNumber string    `gorm:"column:certificate_number;not null;uniqueIndex" json:"certificateNumber"`
	VerificationCode  string    `gorm:"column:verification_code;not null;uniqueIndex" json:"verificationCode"`
	PDFURL            string    `gorm:"column:pdf_url" json:"pdfUrl,omitempty"`
	StorageKey        string    `gorm:"column:storage_key" json:"-"`
	IssuedAt          time.Time `gorm:"column:issued_at;not null;index" json:"issuedAt"`
}

func (Certificate) TableName() string { return "certificate" }

func (c *Certificate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.VerificationCode == "" {
		c.VerificationCode = uuid.NewString()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	return nil
}

// PDFFilename is the download and attachment name.
func (c *Certificate) PDFFilename() string {
	return c.CertificateNumber + ".pdf"
}
