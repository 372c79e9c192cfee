package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/rules"
)

// checkOutcome is what an algorithm produces before it is wrapped into a
// CheckResult.
type checkOutcome struct {
	status  models.CheckStatus
	score   float64
	message string
	details map[string]any
}

// executeCheck runs one check through its state machine:
// dependencies → conditional logic → algorithm. Dependency and condition
// short-circuits yield not_applicable without running the algorithm; any
// panic during execution fails closed with status error and score 0.
func executeCheck(check *rules.CheckDefinition, docs map[models.DocumentType]*models.Document, pctx models.ProjectContext, prior map[string]*models.CheckResult) *models.CheckResult {
	result := &models.CheckResult{
		CheckID:   check.ID,
		Category:  check.Category,
		Timestamp: time.Now().UTC(),
	}

	// Dependencies gate before conditional logic.
	for _, dep := range check.DependsOn {
		depResult, ok := prior[dep]
		if !ok || depResult.Status != models.CheckStatusPass {
			result.Status = models.CheckStatusNotApplicable
			result.Message = fmt.Sprintf("dependency %q not satisfied", dep)
			return result
		}
	}

	applicability := evaluateConditions(check.Conditions, docs, pctx)
	if !applicability.Applicable {
		result.Status = models.CheckStatusNotApplicable
		result.Message = "conditions not met"
		result.Details = applicability.Details
		return result
	}

	outcome := runAlgorithm(check, docs)

	result.Status = outcome.status
	result.Score = outcome.score
	result.Message = outcome.message
	result.Details = outcome.details
	if errMsg, ok := applicability.Details["error"]; ok {
		if result.Details == nil {
			result.Details = map[string]any{}
		}
		result.Details["condition_error"] = errMsg
	}

	if result.Status == models.CheckStatusFail || result.Status == models.CheckStatusWarning || result.Status == models.CheckStatusError {
		result.Recommendations = append(result.Recommendations, recommendationFor(check))
	}

	return result
}

// runAlgorithm dispatches over the closed algorithm enum, converting any
// panic into an errored outcome rather than letting it escape the run.
func runAlgorithm(check *rules.CheckDefinition, docs map[models.DocumentType]*models.Document) (outcome checkOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = checkOutcome{
				status:  models.CheckStatusError,
				score:   0.0,
				message: fmt.Sprintf("check execution panicked: %v", r),
			}
		}
	}()

	switch check.Algorithm {
	case rules.AlgorithmPatternMatch:
		return runPatternMatch(check, docs)
	case rules.AlgorithmContentAnalysis:
		return runContentAnalysis(check, docs)
	case rules.AlgorithmCrossReference:
		return runCrossReference(check, docs)
	default:
		return checkOutcome{
			status:  models.CheckStatusError,
			score:   0.0,
			message: fmt.Sprintf("unknown algorithm %q", check.Algorithm),
		}
	}
}

// runPatternMatch passes only when every extracted occurrence across all
// referenced documents matches the pattern. A field with no occurrences is a
// failure, not a skip.
func runPatternMatch(check *rules.CheckDefinition, docs map[models.DocumentType]*models.Document) checkOutcome {
	fields := collectFields(check.Locations, docs)

	var occurrences, mismatches []string
	for _, fv := range fields {
		if !fv.Found || strings.TrimSpace(fv.Value) == "" {
			continue
		}
		occurrences = append(occurrences, fv.Value)
		if !check.Pattern().MatchString(strings.TrimSpace(fv.Value)) {
			mismatches = append(mismatches, fmt.Sprintf("%s:%s=%q", fv.Document, fv.Path, fv.Value))
		}
	}

	if len(occurrences) == 0 {
		return checkOutcome{
			status:  models.CheckStatusFail,
			score:   0.0,
			message: "field not present in any referenced document",
		}
	}
	if len(mismatches) > 0 {
		return checkOutcome{
			status:  models.CheckStatusFail,
			score:   0.0,
			message: fmt.Sprintf("%d of %d occurrences do not match expected format", len(mismatches), len(occurrences)),
			details: map[string]any{"mismatches": mismatches},
		}
	}

	return checkOutcome{
		status:  models.CheckStatusPass,
		score:   1.0,
		message: fmt.Sprintf("all %d occurrences match expected format", len(occurrences)),
	}
}

// runContentAnalysis checks each location against the expected-format
// descriptor. Fails closed: a missing or too-short field is a validation
// failure.
func runContentAnalysis(check *rules.CheckDefinition, docs map[models.DocumentType]*models.Document) checkOutcome {
	fields := collectFields(check.Locations, docs)
	params := check.Params

	var failures []string
	for _, fv := range fields {
		value := strings.TrimSpace(fv.Value)
		loc := fmt.Sprintf("%s:%s", fv.Document, fv.Path)

		if !fv.Found || value == "" {
			if params.Required {
				failures = append(failures, loc+": missing")
			}
			continue
		}
		if params.MinLength > 0 && len(value) < params.MinLength {
			failures = append(failures, fmt.Sprintf("%s: shorter than %d characters", loc, params.MinLength))
		}
		if params.MaxLength > 0 && len(value) > params.MaxLength {
			failures = append(failures, fmt.Sprintf("%s: longer than %d characters", loc, params.MaxLength))
		}
		if params.ValueType == "number" {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %q is not a number", loc, value))
			}
		}
	}

	if len(failures) > 0 {
		return checkOutcome{
			status:  models.CheckStatusFail,
			score:   0.0,
			message: strings.Join(failures, "; "),
			details: map[string]any{"failures": failures},
		}
	}

	return checkOutcome{
		status:  models.CheckStatusPass,
		score:   1.0,
		message: "content matches expected format",
	}
}

// runCrossReference compares the same logical field across documents.
// Consistency is the mean of pairwise scores (exact match 1.0, otherwise
// character-set overlap). With fewer than two documents providing the field
// the result is a warning, never a hard failure.
func runCrossReference(check *rules.CheckDefinition, docs map[models.DocumentType]*models.Document) checkOutcome {
	fields := collectFields(check.Locations, docs)

	type sample struct {
		doc   models.DocumentType
		value string
	}
	var samples []sample
	for _, fv := range fields {
		value := strings.TrimSpace(fv.Value)
		if fv.Found && value != "" {
			samples = append(samples, sample{doc: fv.Document, value: value})
		}
	}

	if len(samples) < 2 {
		return checkOutcome{
			status:  models.CheckStatusWarning,
			score:   0.5,
			message: "insufficient documents for cross-reference",
			details: map[string]any{"documents_with_value": len(samples)},
		}
	}

	var total float64
	pairs := 0
	pairScores := map[string]float64{}
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			var score float64
			if samples[i].value == samples[j].value {
				score = 1.0
			} else {
				score = charSetSimilarity(samples[i].value, samples[j].value)
			}
			total += score
			pairs++
			pairScores[fmt.Sprintf("%s/%s", samples[i].doc, samples[j].doc)] = score
		}
	}

	consistency := total / float64(pairs)
	outcome := checkOutcome{
		score:   consistency,
		details: map[string]any{"pair_scores": pairScores, "consistency": consistency},
	}
	switch {
	case consistency >= 0.9:
		outcome.status = models.CheckStatusPass
		outcome.message = "values are consistent across documents"
	case consistency >= 0.7:
		outcome.status = models.CheckStatusWarning
		outcome.message = "values are mostly consistent across documents"
	default:
		outcome.status = models.CheckStatusFail
		outcome.message = "values disagree across documents"
	}

	return outcome
}

func recommendationFor(check *rules.CheckDefinition) string {
	if check.Params.Recommendation != "" {
		return check.Params.Recommendation
	}
	return "Review: " + check.Description
}
