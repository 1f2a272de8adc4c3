// Package services – CredentialsService
//
// CredentialsService stores a user's Qualtrics API token, datacenter and
// brand id after the platform has confirmed they work.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-survey-backend/internal/domain"
	"github.com/tbourn/go-survey-backend/internal/repo"
)

// The datacenter becomes part of the platform host name.
var datacenterRE = regexp.MustCompile(`^[a-z0-9-]{1,32}$`)

// CredentialsService validates and persists platform credentials.
type CredentialsService struct {
	DB       *gorm.DB
	Platform SurveyPlatform
}

// Update verifies creds with the platform and stores them for userID.
func (s *CredentialsService) Update(ctx context.Context, userID uint, creds domain.QualtricsCredentials) error {
	ctx, span := otel.Tracer("services/CredentialsService").Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int("user.id", int(userID)),
			attribute.String("datacenter", creds.Datacenter),
		),
	)
	defer span.End()

	creds.APIToken = strings.TrimSpace(creds.APIToken)
	creds.Datacenter = strings.ToLower(strings.TrimSpace(creds.Datacenter))
	creds.BrandID = strings.TrimSpace(creds.BrandID)
	if creds.APIToken == "" || creds.Datacenter == "" || creds.BrandID == "" {
		return ErrMissingCredentials
	}
	if !datacenterRE.MatchString(creds.Datacenter) {
		return ErrInvalidDatacenter
	}

	ok, err := repo.UserExists(ctx, s.DB, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	valid, err := s.Platform.VerifyCredentials(ctx, creds)
	if err != nil {
		collaboratorFailures.WithLabelValues("qualtrics").Inc()
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrPlatformCallFailed, err)
	}
	if !valid {
		return ErrCredentialsInvalid
	}

	if err := repo.UpdateQualtricsCredentials(ctx, s.DB, userID, creds); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
