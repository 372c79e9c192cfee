package engine

import (
	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
)

// criticalWeight is the definition weight at or above which a failed check
// becomes a critical issue.
const criticalWeight = 3.0

// Summary is the aggregated view of one run's check results.
type Summary struct {
	OverallScore    float64
	OverallStatus   models.OverallStatus
	CategoryScores  map[string]float64
	CriticalIssues  []models.CriticalIssue
	Recommendations []string
	ActionPlan      *models.ActionPlan
}

// Aggregate combines individual check results into category and overall
// scores plus a prioritized action plan. Only evaluated results (not
// not_applicable, not error) enter score denominators; a run with zero
// evaluated checks scores 0. Aggregation walks checks in catalog order so
// output ordering is deterministic.
func Aggregate(catalog *rules.Catalog, results map[string]*models.CheckResult) Summary {
	summary := Summary{
		CategoryScores: map[string]float64{},
		ActionPlan:     &models.ActionPlan{PriorityTasks: []models.Task{}, OptionalTasks: []models.Task{}},
	}

	var totalScore float64
	evaluated := 0
	categoryTotals := map[string]float64{}
	categoryCounts := map[string]int{}
	seenRecommendation := map[string]bool{}

	for _, check := range catalog.Checks {
		result, ok := results[check.ID]
		if !ok {
			continue
		}

		if result.Status.Evaluated() {
			totalScore += result.Score
			evaluated++
			categoryTotals[check.Category] += result.Score
			categoryCounts[check.Category]++
		}

		if result.Status == models.CheckStatusFail && check.Weight >= criticalWeight {
			summary.CriticalIssues = append(summary.CriticalIssues, models.CriticalIssue{
				CheckID:     check.ID,
				Category:    check.Category,
				Description: check.Description,
				Message:     result.Message,
				Weight:      check.Weight,
			})
		}

		for _, rec := range result.Recommendations {
			if !seenRecommendation[rec] {
				seenRecommendation[rec] = true
				summary.Recommendations = append(summary.Recommendations, rec)
			}
		}

		switch result.Status {
		case models.CheckStatusFail, models.CheckStatusError:
			hours := 1.0
			if check.Weight >= criticalWeight {
				hours = 2.0
			}
			summary.ActionPlan.PriorityTasks = append(summary.ActionPlan.PriorityTasks, models.Task{
				CheckID:        check.ID,
				Description:    check.Description,
				Status:         string(result.Status),
				EstimatedHours: hours,
			})
			summary.ActionPlan.TotalEstimatedHours += hours
		case models.CheckStatusWarning:
			summary.ActionPlan.OptionalTasks = append(summary.ActionPlan.OptionalTasks, models.Task{
				CheckID:        check.ID,
				Description:    check.Description,
				Status:         string(result.Status),
				EstimatedHours: 0.5,
			})
			summary.ActionPlan.TotalEstimatedHours += 0.5
		}
	}

	if evaluated > 0 {
		summary.OverallScore = totalScore / float64(evaluated)
	}
	summary.OverallStatus = StatusForScore(summary.OverallScore)

	// Categories with no evaluated checks are omitted, not zeroed.
	for category, count := range categoryCounts {
		summary.CategoryScores[category] = categoryTotals[category] / float64(count)
	}

	return summary
}

// StatusForScore classifies a fractional score on the canonical scale.
func StatusForScore(score float64) models.OverallStatus {
	switch {
	case score >= 0.9:
		return models.OverallPass
	case score >= 0.7:
		return models.OverallPassWithWarnings
	default:
		return models.OverallFail
	}
}
