package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/domain/learning"
)

var CertificateAggregateContract = Contract{
	Name:             "Learning.CertificateAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns certificate issuance: at most one certificate per (user, journey), " +
		"issued only for completed journeys, with the completion bonus applied in the same transaction.",
}

// CertificateAggregate inserts certificates whose document already exists
// in object storage.
//
// A duplicate certificate number surfaces as CodeConflict so the caller can
// retry with the next number. A duplicate (user, journey) is not an error:
// the existing certificate comes back with Created=false.
type CertificateAggregate interface {
	Aggregate

	Issue(ctx context.Context, in IssueCertificateInput) (IssueCertificateResult, error)
}

type IssueCertificateInput struct {
	UserID            uuid.UUID
	JourneyID         uint
	CertificateNumber string
	VerificationCode  string
	PDFURL            string
	StorageKey        string
	IssuedAt          time.Time
	BonusPoints       int
}

type IssueCertificateResult struct {
	Certificate *learning.Certificate
	Created     bool
}
