package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

func legacyFixture() []entity.LegacyPatient {
	return []entity.LegacyPatient{
		{ID: "L1", Name: "Seo Jihun", PhoneNumber: "010-1111-2222", Status: "예약확정", CallInDate: "2024-02-01"},
		{ID: "L2", Name: "No Phone", Status: "콜백필요"},
		{ID: "L3", Name: "Seo Jihun", PhoneNumber: "01011112222"},
		{ID: "L4", Name: "Oh Sena", PhoneNumber: "010-3333-4444", Status: "활성고객"},
	}
}

func TestMigrateLegacyDryRun(t *testing.T) {
	source := new(MockLegacySource)
	patients := new(MockPatientRepository)
	source.On("FindAllLegacy", mock.Anything).Return(legacyFixture(), nil)
	uc := NewMigrateLegacyUseCase(source, patients, kst, zerolog.Nop())

	result, err := uc.Execute(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Migrated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Fallbacks)
	assert.Equal(t, map[entity.CanonicalState]int{
		entity.StageReserved:   1,
		entity.StageConsulting: 1,
	}, result.StatusCounts)
	patients.AssertNotCalled(t, "UpsertByPhone", mock.Anything, mock.Anything)
}

func TestMigrateLegacyCountsFailures(t *testing.T) {
	source := new(MockLegacySource)
	patients := new(MockPatientRepository)
	source.On("FindAllLegacy", mock.Anything).Return(legacyFixture(), nil)
	patients.On("UpsertByPhone", mock.Anything, mock.MatchedBy(func(p *entity.Patient) bool {
		return p.ID == "L1"
	})).Return(nil)
	patients.On("UpsertByPhone", mock.Anything, mock.MatchedBy(func(p *entity.Patient) bool {
		return p.ID == "L4"
	})).Return(errors.New("write concern timeout"))
	uc := NewMigrateLegacyUseCase(source, patients, kst, zerolog.Nop())

	result, err := uc.Execute(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Migrated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "L4", result.Errors[2].LegacyID)
}

func TestMigrateLegacySourceFailure(t *testing.T) {
	source := new(MockLegacySource)
	source.On("FindAllLegacy", mock.Anything).Return(nil, errors.New("auth failed"))
	uc := NewMigrateLegacyUseCase(source, new(MockPatientRepository), kst, zerolog.Nop())

	_, err := uc.Execute(context.Background(), false)

	assert.True(t, IsTechnicalError(err))
}
