package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/siteops/doc-validator-api/internal/models"
)

type Repository interface {
	CreateDocument(ctx context.Context, doc *models.StoredDocument) error
	GetDocument(ctx context.Context, id string) (*models.StoredDocument, error)

	SaveRun(ctx context.Context, run *models.ValidationRun) error
	GetRun(ctx context.Context, runID string) (*models.ValidationRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)

	CategoryTrends(ctx context.Context, since time.Time) ([]models.CategoryTrend, error)
	RunStats(ctx context.Context, since time.Time) (runCount int, avgScore, passRate float64, err error)
	MostFailedChecks(ctx context.Context, since time.Time, limit int) ([]models.CheckFailureCount, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateDocument(ctx context.Context, doc *models.StoredDocument) error {
	query := `
		INSERT INTO documents (id, filename, document_type, content_type, file_size, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.Type,
		doc.ContentType,
		doc.FileSize,
		doc.StorageKey,
		doc.CreatedAt,
	)

	return err
}

func (r *repository) GetDocument(ctx context.Context, id string) (*models.StoredDocument, error) {
	var doc models.StoredDocument

	query := `
		SELECT id, filename, document_type, content_type, file_size, storage_key, created_at
		FROM documents
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// SaveRun writes the run row and its check-result rows in one transaction so
// a stored run is never missing results.
func (r *repository) SaveRun(ctx context.Context, run *models.ValidationRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	documentKeys, err := json.Marshal(run.DocumentKeys)
	if err != nil {
		return err
	}

	runQuery := `
		INSERT INTO validation_runs (run_id, created_at, overall_score, status, execution_ms, document_keys, config_name, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.ExecContext(ctx, runQuery,
		run.RunID,
		run.CreatedAt,
		run.OverallScore,
		run.Status,
		run.ExecutionMS,
		string(documentKeys),
		run.ConfigName,
		run.ErrorMessage,
	); err != nil {
		return err
	}

	resultQuery := `
		INSERT INTO check_results (run_id, check_id, category, status, score, message, details, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, result := range run.IndividualResults {
		details, err := json.Marshal(result.Details)
		if err != nil {
			return err
		}
		recommendations, err := json.Marshal(result.Recommendations)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, resultQuery,
			run.RunID,
			result.CheckID,
			result.Category,
			result.Status,
			result.Score,
			result.Message,
			string(details),
			string(recommendations),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) GetRun(ctx context.Context, runID string) (*models.ValidationRun, error) {
	var row struct {
		RunID        string           `db:"run_id"`
		CreatedAt    time.Time        `db:"created_at"`
		OverallScore float64          `db:"overall_score"`
		Status       models.RunStatus `db:"status"`
		ExecutionMS  int64            `db:"execution_ms"`
		DocumentKeys string           `db:"document_keys"`
		ConfigName   string           `db:"config_name"`
		ErrorMessage string           `db:"error_message"`
	}

	query := `
		SELECT run_id, created_at, overall_score, status, execution_ms, document_keys, config_name, error_message
		FROM validation_runs
		WHERE run_id = $1
	`
	err := r.db.GetContext(ctx, &row, query, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run := &models.ValidationRun{
		RunID:             row.RunID,
		CreatedAt:         row.CreatedAt,
		OverallScore:      row.OverallScore,
		Status:            row.Status,
		ExecutionMS:       row.ExecutionMS,
		ConfigName:        row.ConfigName,
		ErrorMessage:      row.ErrorMessage,
		IndividualResults: map[string]*models.CheckResult{},
		CategoryScores:    map[string]float64{},
	}
	if err := json.Unmarshal([]byte(row.DocumentKeys), &run.DocumentKeys); err != nil {
		return nil, fmt.Errorf("corrupt document_keys for run %s: %w", runID, err)
	}

	resultQuery := `
		SELECT check_id, category, status, score, message, details, recommendations
		FROM check_results
		WHERE run_id = $1
	`
	rows, err := r.db.QueryxContext(ctx, resultQuery, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resultRow struct {
			CheckID         string             `db:"check_id"`
			Category        string             `db:"category"`
			Status          models.CheckStatus `db:"status"`
			Score           float64            `db:"score"`
			Message         string             `db:"message"`
			Details         string             `db:"details"`
			Recommendations string             `db:"recommendations"`
		}
		if err := rows.StructScan(&resultRow); err != nil {
			return nil, err
		}

		result := &models.CheckResult{
			CheckID:   resultRow.CheckID,
			Category:  resultRow.Category,
			Status:    resultRow.Status,
			Score:     resultRow.Score,
			Message:   resultRow.Message,
			Timestamp: row.CreatedAt,
		}
		if resultRow.Details != "" && resultRow.Details != "null" {
			if err := json.Unmarshal([]byte(resultRow.Details), &result.Details); err != nil {
				return nil, fmt.Errorf("corrupt details for check %s: %w", resultRow.CheckID, err)
			}
		}
		if resultRow.Recommendations != "" && resultRow.Recommendations != "null" {
			if err := json.Unmarshal([]byte(resultRow.Recommendations), &result.Recommendations); err != nil {
				return nil, fmt.Errorf("corrupt recommendations for check %s: %w", resultRow.CheckID, err)
			}
		}
		run.IndividualResults[result.CheckID] = result
	}

	return run, rows.Err()
}

func (r *repository) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, created_at, overall_score, status, execution_ms, config_name
		FROM validation_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	summaries := []models.RunSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, limit); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *repository) CategoryTrends(ctx context.Context, since time.Time) ([]models.CategoryTrend, error) {
	query := `
		SELECT cr.category, AVG(cr.score) AS avg_score, COUNT(*) AS check_count
		FROM check_results cr
		JOIN validation_runs vr ON vr.run_id = cr.run_id
		WHERE vr.created_at >= $1
		  AND cr.status IN ('pass', 'fail', 'warning', 'skipped')
		GROUP BY cr.category
		ORDER BY cr.category
	`

	trends := []models.CategoryTrend{}
	if err := r.db.SelectContext(ctx, &trends, query, since); err != nil {
		return nil, err
	}

	return trends, nil
}

func (r *repository) RunStats(ctx context.Context, since time.Time) (int, float64, float64, error) {
	var row struct {
		RunCount int             `db:"run_count"`
		AvgScore sql.NullFloat64 `db:"avg_score"`
		PassRate sql.NullFloat64 `db:"pass_rate"`
	}

	query := `
		SELECT COUNT(*) AS run_count,
		       AVG(overall_score) AS avg_score,
		       AVG(CASE WHEN overall_score >= 0.9 THEN 1.0 ELSE 0.0 END) AS pass_rate
		FROM validation_runs
		WHERE created_at >= $1 AND status = 'COMPLETED'
	`
	if err := r.db.GetContext(ctx, &row, query, since); err != nil {
		return 0, 0, 0, err
	}

	return row.RunCount, row.AvgScore.Float64, row.PassRate.Float64, nil
}

func (r *repository) MostFailedChecks(ctx context.Context, since time.Time, limit int) ([]models.CheckFailureCount, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT cr.check_id, cr.category, COUNT(*) AS failures
		FROM check_results cr
		JOIN validation_runs vr ON vr.run_id = cr.run_id
		WHERE vr.created_at >= $1 AND cr.status = 'fail'
		GROUP BY cr.check_id, cr.category
		ORDER BY failures DESC, cr.check_id
		LIMIT $2
	`

	failures := []models.CheckFailureCount{}
	if err := r.db.SelectContext(ctx, &failures, query, since, limit); err != nil {
		return nil, err
	}

	return failures, nil
}
