// Package report renders validation-run results as CSV and XLSX downloads.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/siteops/doc-validator-api/internal/models"
)

// sortedResults returns check results in a stable category/check order so
// repeated exports of the same run are byte-identical.
func sortedResults(run *models.ValidationRun) []*models.CheckResult {
	results := make([]*models.CheckResult, 0, len(run.IndividualResults))
	for _, r := range run.IndividualResults {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Category != results[j].Category {
			return results[i].Category < results[j].Category
		}
		return results[i].CheckID < results[j].CheckID
	})
	return results
}

// WriteCSV writes summary rows followed by one row per check result.
func WriteCSV(w io.Writer, run *models.ValidationRun) error {
	cw := csv.NewWriter(w)

	summary := [][]string{
		{"run_id", run.RunID},
		{"created_at", run.CreatedAt.Format("2006-01-02 15:04:05")},
		{"status", string(run.Status)},
		{"overall_score", fmt.Sprintf("%.4f", run.OverallScore)},
		{"overall_status", string(run.OverallStatus)},
		{"critical_issues", fmt.Sprintf("%d", len(run.CriticalIssues))},
		{},
		{"category", "check_id", "status", "score", "message"},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, result := range sortedResults(run) {
		row := []string{
			result.Category,
			result.CheckID,
			string(result.Status),
			fmt.Sprintf("%.4f", result.Score),
			result.Message,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
