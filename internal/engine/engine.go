// Package engine implements the rule-validation core: conditional-logic
// evaluation, per-check execution, and result aggregation over extracted
// document content trees.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
	"github.com/siteops/doc-validator-api/internal/utils"
)

// ProgressFunc receives coarse progress as checks complete.
type ProgressFunc func(completed, total int)

type Engine struct {
	logger *utils.Logger
}

func New(logger *utils.Logger) *Engine {
	return &Engine{logger: logger}
}

// Run executes every catalog check in order against the document set and
// aggregates the results. Checks run strictly sequentially within a run;
// concurrent runs each get their own ValidationRun. The returned run is
// frozen: callers must not mutate it.
//
// A run fails fatally only when no document contributed any content; a
// document with per-section processing errors still participates, and checks
// referencing its missing fields fail their own presence tests.
func (e *Engine) Run(ctx context.Context, runID string, catalog *rules.Catalog, docs []*models.Document, pctx models.ProjectContext, progress ProgressFunc) *models.ValidationRun {
	start := time.Now()

	if runID == "" {
		runID = utils.GenerateID()
	}
	run := &models.ValidationRun{
		RunID:             runID,
		Status:            models.RunStatusRunning,
		CreatedAt:         start.UTC(),
		Documents:         docs,
		IndividualResults: make(map[string]*models.CheckResult, len(catalog.Checks)),
		CategoryScores:    map[string]float64{},
		CriticalIssues:    []models.CriticalIssue{},
		Recommendations:   []string{},
		ConfigName:        catalog.Name,
	}
	for _, doc := range docs {
		if doc.StorageKey != "" {
			run.DocumentKeys = append(run.DocumentKeys, doc.StorageKey)
		}
	}

	byType := make(map[models.DocumentType]*models.Document, len(docs))
	usable := 0
	var extractionErrors []string
	for _, doc := range docs {
		if len(doc.Content) > 0 {
			usable++
		}
		extractionErrors = append(extractionErrors, doc.ProcessingErrors...)
		if _, exists := byType[doc.Type]; !exists {
			byType[doc.Type] = doc
		}
	}

	if usable == 0 {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = "no readable documents available"
		if len(extractionErrors) > 0 {
			run.ErrorMessage += ": " + strings.Join(extractionErrors, "; ")
		}
		run.ExecutionMS = time.Since(start).Milliseconds()
		e.logger.Error("Validation run failed before any checks", "run_id", run.RunID, "error", run.ErrorMessage)
		return run
	}

	total := len(catalog.Checks)
	for i, check := range catalog.Checks {
		result := executeCheck(check, byType, pctx, run.IndividualResults)
		run.IndividualResults[check.ID] = result

		if result.Status == models.CheckStatusError {
			e.logger.Warn("Check errored",
				"run_id", run.RunID, "check_id", check.ID, "message", result.Message)
		}
		if progress != nil {
			progress(i+1, total)
		}
	}

	summary := Aggregate(catalog, run.IndividualResults)
	run.OverallScore = summary.OverallScore
	run.OverallStatus = summary.OverallStatus
	run.CategoryScores = summary.CategoryScores
	run.CriticalIssues = summary.CriticalIssues
	run.Recommendations = summary.Recommendations
	run.ActionPlan = summary.ActionPlan
	run.Status = models.RunStatusCompleted
	run.ExecutionMS = time.Since(start).Milliseconds()

	e.logger.Info("Validation run completed",
		"run_id", run.RunID,
		"checks", total,
		"overall_score", run.OverallScore,
		"overall_status", run.OverallStatus,
		"critical_issues", len(run.CriticalIssues),
		"duration_ms", run.ExecutionMS)

	return run
}
