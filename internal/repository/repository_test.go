package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/doc-validator-api/internal/db"
	"github.com/siteops/doc-validator-api/internal/models"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()

	dbFile := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.NewSQLiteDB(dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "db", "migrations", "000001_init.up.sql"))
	require.NoError(t, err)
	_, err = conn.Exec(string(schema))
	require.NoError(t, err)

	return NewRepository(conn)
}

func storedRun(runID string, createdAt time.Time, score float64, status models.RunStatus) *models.ValidationRun {
	return &models.ValidationRun{
		RunID:        runID,
		CreatedAt:    createdAt,
		OverallScore: score,
		Status:       status,
		ExecutionMS:  42,
		DocumentKeys: []string{"documents/" + runID + "/survey.xlsx"},
		ConfigName:   "default",
		IndividualResults: map[string]*models.CheckResult{
			"project_name_provided": {
				CheckID:         "project_name_provided",
				Category:        "Project Details",
				Status:          models.CheckStatusPass,
				Score:           1.0,
				Message:         "project name present",
				Details:         map[string]any{"value": "Edge Cluster West"},
				Recommendations: []string{"none"},
			},
			"vlan_id_format": {
				CheckID:  "vlan_id_format",
				Category: "Network Configuration",
				Status:   models.CheckStatusFail,
				Score:    0.0,
				Message:  "VLAN id is not numeric",
			},
		},
	}
}

func TestDocumentRoundtrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	doc := &models.StoredDocument{
		ID:          "doc-1",
		Filename:    "survey.xlsx",
		Type:        models.DocumentSiteSurveyPart1,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		FileSize:    2048,
		StorageKey:  "documents/doc-1/survey.xlsx",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateDocument(ctx, doc))

	got, err := repo.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.Type, got.Type)
	assert.Equal(t, doc.FileSize, got.FileSize)
	assert.Equal(t, doc.StorageKey, got.StorageKey)

	missing, err := repo.GetDocument(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveRunGetRun(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := storedRun("run-1", time.Now().UTC(), 0.5, models.RunStatusCompleted)
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.OverallScore, got.OverallScore)
	assert.Equal(t, run.Status, got.Status)
	assert.Equal(t, run.ExecutionMS, got.ExecutionMS)
	assert.Equal(t, run.DocumentKeys, got.DocumentKeys)
	assert.Equal(t, run.ConfigName, got.ConfigName)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)

	require.Len(t, got.IndividualResults, 2)
	pass := got.IndividualResults["project_name_provided"]
	require.NotNil(t, pass)
	assert.Equal(t, models.CheckStatusPass, pass.Status)
	assert.Equal(t, "Edge Cluster West", pass.Details["value"])
	assert.Equal(t, []string{"none"}, pass.Recommendations)

	fail := got.IndividualResults["vlan_id_format"]
	require.NotNil(t, fail)
	assert.Equal(t, models.CheckStatusFail, fail.Status)
	assert.Empty(t, fail.Details)
}

func TestSaveRun_DuplicateRunID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	run := storedRun("run-1", time.Now().UTC(), 0.5, models.RunStatusCompleted)
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.Error(t, repo.SaveRun(ctx, run))
}

func TestGetRun_Missing(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRuns(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := storedRun(id, base.Add(time.Duration(i)*time.Minute), 0.8, models.RunStatusCompleted)
		require.NoError(t, repo.SaveRun(ctx, run))
	}

	summaries, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	// Newest first.
	assert.Equal(t, "run-c", summaries[0].RunID)
	assert.Equal(t, "run-b", summaries[1].RunID)

	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunStats(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.SaveRun(ctx, storedRun("run-pass", now, 0.95, models.RunStatusCompleted)))
	require.NoError(t, repo.SaveRun(ctx, storedRun("run-fail", now, 0.45, models.RunStatusCompleted)))
	// Failed runs never enter the stats.
	require.NoError(t, repo.SaveRun(ctx, storedRun("run-err", now, 0.0, models.RunStatusFailed)))
	// Old runs fall outside the window.
	require.NoError(t, repo.SaveRun(ctx, storedRun("run-old", now.Add(-48*time.Hour), 1.0, models.RunStatusCompleted)))

	count, avg, passRate, err := repo.RunStats(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 0.7, avg, 0.0001)
	assert.InDelta(t, 0.5, passRate, 0.0001)
}

func TestRunStats_Empty(t *testing.T) {
	repo := newTestRepository(t)

	count, avg, passRate, err := repo.RunStats(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
	assert.Zero(t, passRate)
}

func TestCategoryTrendsAndMostFailedChecks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.SaveRun(ctx, storedRun("run-1", now, 0.5, models.RunStatusCompleted)))
	require.NoError(t, repo.SaveRun(ctx, storedRun("run-2", now, 0.5, models.RunStatusCompleted)))

	trends, err := repo.CategoryTrends(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, trends, 2)
	// Alphabetical by category.
	assert.Equal(t, "Network Configuration", trends[0].Category)
	assert.Equal(t, 2, trends[0].CheckCount)
	assert.InDelta(t, 0.0, trends[0].AvgScore, 0.0001)
	assert.Equal(t, "Project Details", trends[1].Category)
	assert.InDelta(t, 1.0, trends[1].AvgScore, 0.0001)

	failed, err := repo.MostFailedChecks(ctx, now.Add(-time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "vlan_id_format", failed[0].CheckID)
	assert.Equal(t, 2, failed[0].Failures)
}
