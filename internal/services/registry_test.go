package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/database/testutil"
)

func TestNewRegistry(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	_, err := NewRegistry(nil, Collaborators{Generator: &fakeGenerator{}})
	require.Error(t, err)

	_, err = NewRegistry(db, Collaborators{})
	require.Error(t, err, "generator is mandatory")

	registry, err := NewRegistry(db, Collaborators{Generator: &fakeGenerator{}})
	require.NoError(t, err)
	require.NotNil(t, registry.Authority)
	require.NotNil(t, registry.Photos)
	require.NotNil(t, registry.Weather)
	require.NotNil(t, registry.WeatherAdvice)
	require.NotNil(t, registry.WalkAdvisor)
}
