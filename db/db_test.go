package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()

	archive, err := Connect(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func testSummary() model.RunSummary {
	return model.RunSummary{
		Kind:            model.RunKindPSF,
		Status:          model.RunStatusSuccess,
		Engine:          "double-gaussian",
		StartedAt:       time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		EndedAt:         time.Date(2026, 8, 30, 10, 5, 0, 0, time.UTC),
		Events:          100000,
		BeamEnergy:      100.0,
		ResistThickness: 30.0,
		TotalEnergy:     3.0e9,
		ResistEnergy:    1.6e9,
		SubstrateEnergy: 1.3e9,
		AboveEnergy:     1.0e8,
		R50:             12.5,
		R90:             3200.0,
		R99:             21000.0,
		Alpha:           0.55,
		Beta:            0.45,
		Eta:             2600.0,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	id, err := archive.SaveRun(ctx, testSummary())
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := archive.GetRun(ctx, id)
	require.NoError(t, err)

	expected := testSummary()
	expected.ID = id
	assert.Equal(t, expected, got)
}

func TestGetRunNotFound(t *testing.T) {
	archive := testArchive(t)

	_, err := archive.GetRun(context.Background(), 12345)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	first := testSummary()
	second := testSummary()
	second.Kind = model.RunKindPattern
	second.TotalShots = 62500

	firstID, err := archive.SaveRun(ctx, first)
	require.NoError(t, err)
	secondID, err := archive.SaveRun(ctx, second)
	require.NoError(t, err)

	runs, err := archive.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, model.RunKindPattern, runs[0].Kind)
	assert.Equal(t, 62500, runs[0].TotalShots)
	assert.Equal(t, firstID, runs[1].ID)
}

func TestListRunsLimit(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := archive.SaveRun(ctx, testSummary())
		require.NoError(t, err)
	}

	runs, err := archive.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestListRunsEmpty(t *testing.T) {
	archive := testArchive(t)

	runs, err := archive.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
