package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

// MigrateLegacyUseCase copies legacy patient documents into the current
// collection, adapting them on the way and de-duplicating by phone.
type MigrateLegacyUseCase struct {
	Source   entity.LegacyPatientSource
	Patients entity.PatientRepository
	Loc      *time.Location
	Logger   zerolog.Logger
}

func NewMigrateLegacyUseCase(source entity.LegacyPatientSource, patients entity.PatientRepository, loc *time.Location, logger zerolog.Logger) *MigrateLegacyUseCase {
	return &MigrateLegacyUseCase{Source: source, Patients: patients, Loc: loc, Logger: logger}
}

// Execute migrates every legacy record. With dryRun nothing is written and
// the result previews what would be migrated.
func (uc *MigrateLegacyUseCase) Execute(ctx context.Context, dryRun bool) (*MigrationResult, error) {
	legacy, err := uc.Source.FindAllLegacy(ctx)
	if err != nil {
		return nil, storeError("failed to load legacy patients", err)
	}

	result := &MigrationResult{
		DryRun:       dryRun,
		StatusCounts: map[entity.CanonicalState]int{},
	}
	seen := map[string]string{}

	for i := range legacy {
		l := &legacy[i]
		result.Total++

		p, issues := l.ToPatient(uc.Loc)
		for _, issue := range issues {
			uc.Logger.Warn().Str("legacy_id", l.ID).Str("field", issue.Field).Str("value", issue.Value).Msg("legacy value replaced by fallback")
		}
		result.Fallbacks += len(issues)

		if !p.HasIdentity() {
			result.Skipped++
			result.Errors = append(result.Errors, MigrationError{LegacyID: l.ID, Phone: p.Phone, Reason: "missing name or phone"})
			continue
		}

		key := entity.NormalizePhone(p.Phone)
		if first, dup := seen[key]; dup {
			result.Duplicates++
			result.Errors = append(result.Errors, MigrationError{LegacyID: l.ID, Phone: p.Phone, Reason: "duplicate phone of " + first})
			continue
		}
		seen[key] = l.ID

		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		result.StatusCounts[p.Stage]++

		if dryRun {
			result.Migrated++
			continue
		}
		if err := uc.Patients.UpsertByPhone(ctx, p); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, MigrationError{LegacyID: l.ID, Phone: p.Phone, Reason: err.Error()})
			uc.Logger.Error().Err(err).Str("legacy_id", l.ID).Msg("failed to migrate legacy patient")
			continue
		}
		result.Migrated++
	}

	uc.Logger.Info().
		Bool("dry_run", dryRun).
		Int("total", result.Total).
		Int("migrated", result.Migrated).
		Int("skipped", result.Skipped).
		Int("duplicates", result.Duplicates).
		Int("failed", result.Failed).
		Msg("legacy migration finished")
	return result, nil
}
