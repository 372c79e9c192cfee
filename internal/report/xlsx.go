package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/siteops/doc-validator-api/internal/models"
)

// WriteXLSX renders a run as a workbook with Summary, Results, and
// Action Plan sheets.
func WriteXLSX(w io.Writer, run *models.ValidationRun) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, run); err != nil {
		return err
	}
	if err := writeResultsSheet(f, run); err != nil {
		return err
	}
	if err := writeActionPlanSheet(f, run); err != nil {
		return err
	}

	// excelize starts with a default "Sheet1"
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, run *models.ValidationRun) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Run ID", run.RunID},
		{"Created", run.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Status", string(run.Status)},
		{"Overall Score", fmt.Sprintf("%.1f%%", run.OverallScore*100)},
		{"Overall Status", string(run.OverallStatus)},
		{"Execution (ms)", run.ExecutionMS},
		{},
		{"Category Scores"},
	}

	categories := make([]string, 0, len(run.CategoryScores))
	for category := range run.CategoryScores {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		rows = append(rows, []any{category, fmt.Sprintf("%.1f%%", run.CategoryScores[category]*100)})
	}

	if len(run.CriticalIssues) > 0 {
		rows = append(rows, []any{}, []any{"Critical Issues"})
		for _, issue := range run.CriticalIssues {
			rows = append(rows, []any{issue.CheckID, issue.Description, issue.Message})
		}
	}

	return writeRows(f, sheet, rows)
}

func writeResultsSheet(f *excelize.File, run *models.ValidationRun) error {
	const sheet = "Results"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{{"Category", "Check", "Status", "Score", "Message"}}
	for _, result := range sortedResults(run) {
		rows = append(rows, []any{
			result.Category,
			result.CheckID,
			string(result.Status),
			result.Score,
			result.Message,
		})
	}

	return writeRows(f, sheet, rows)
}

func writeActionPlanSheet(f *excelize.File, run *models.ValidationRun) error {
	const sheet = "Action Plan"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{{"Priority", "Check", "Description", "Status", "Estimated Hours"}}
	if run.ActionPlan != nil {
		for _, task := range run.ActionPlan.PriorityTasks {
			rows = append(rows, []any{"priority", task.CheckID, task.Description, task.Status, task.EstimatedHours})
		}
		for _, task := range run.ActionPlan.OptionalTasks {
			rows = append(rows, []any{"optional", task.CheckID, task.Description, task.Status, task.EstimatedHours})
		}
		rows = append(rows, []any{}, []any{"Total Estimated Hours", "", "", "", run.ActionPlan.TotalEstimatedHours})
	}

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
