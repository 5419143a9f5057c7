package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/missions-backend/internal/data/repos"
	types "github.com/yungbote/missions-backend/internal/domain"
	domainagg "github.com/yungbote/missions-backend/internal/domain/aggregates"
	"github.com/yungbote/missions-backend/internal/platform/dbctx"
)

type CertificateAggregateDeps struct {
	Base         BaseDeps
	Users        repos.UserRepo
	Missions     repos.MissionRepo
	Progress     repos.MissionProgressRepo
	Certificates repos.CertificateRepo
}

type certificateAggregate struct {
	deps CertificateAggregateDeps
}

func NewCertificateAggregate(deps CertificateAggregateDeps) domainagg.CertificateAggregate {
	deps.Base = deps.Base.withDefaults()
	return &certificateAggregate{deps: deps}
}

func (a *certificateAggregate) Contract() domainagg.Contract {
	return domainagg.CertificateAggregateContract
}

func (a *certificateAggregate) Issue(ctx context.Context, in domainagg.IssueCertificateInput) (domainagg.IssueCertificateResult, error) {
	const op = "Certificate.Issue"
	in.CertificateNumber = strings.TrimSpace(in.CertificateNumber)
	in.VerificationCode = strings.TrimSpace(in.VerificationCode)
	switch {
	case in.UserID == uuid.Nil || in.JourneyID == 0:
		return domainagg.IssueCertificateResult{}, MapError(op, ValidationError("user and journey are required"))
	case in.CertificateNumber == "" || in.VerificationCode == "":
		return domainagg.IssueCertificateResult{}, MapError(op, ValidationError("certificate number and verification code are required"))
	case in.BonusPoints < 0:
		return domainagg.IssueCertificateResult{}, MapError(op, ValidationError("bonus points must be >= 0"))
	}
	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	var out domainagg.IssueCertificateResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.IssueCertificateResult{}
		existing, err := a.deps.Certificates.GetByUserJourney(dbc, in.UserID, in.JourneyID)
		if err != nil {
			return err
		}
		if existing != nil {
			out.Certificate = existing
			return nil
		}

		total, err := a.deps.Missions.CountByJourney(dbc, in.JourneyID)
		if err != nil {
			return err
		}
		done, err := a.deps.Progress.CountCompletedInJourney(dbc, in.UserID, in.JourneyID)
		if err != nil {
			return err
		}
		if total == 0 || done < total {
			return errors.Join(ErrPrecondition, domainagg.ErrJourneyIncomplete)
		}

		cert, err := a.deps.Certificates.Create(dbc, &types.Certificate{
			UserID:            in.UserID,
			JourneyID:         in.JourneyID,
			CertificateNumber: in.CertificateNumber,
			VerificationCode:  in.VerificationCode,
			PDFURL:            in.PDFURL,
			StorageKey:        in.StorageKey,
			IssuedAt:          issuedAt,
		})
		if err != nil {
			return err
		}
		if err := a.deps.Users.AddProgress(dbc, in.UserID, in.BonusPoints, 0, 1); err != nil {
			return err
		}
		out.Certificate = cert
		out.Created = true
		return nil
	})
	if domainagg.IsCode(err, domainagg.CodeConflict) {
		// A concurrent issuer won (user, journey); a number clash falls through.
		existing, getErr := a.deps.Certificates.GetByUserJourney(dbctx.Context{Ctx: ctx}, in.UserID, in.JourneyID)
		if getErr == nil && existing != nil {
			return domainagg.IssueCertificateResult{Certificate: existing}, nil
		}
	}
	if err != nil {
		return domainagg.IssueCertificateResult{}, err
	}
	return out, nil
}
