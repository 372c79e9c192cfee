package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/siteops/doc-validator-api/internal/engine"
	"github.com/siteops/doc-validator-api/internal/extractor"
	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/report"
	"github.com/siteops/doc-validator-api/internal/repository"
	"github.com/siteops/doc-validator-api/internal/rules"
	"github.com/siteops/doc-validator-api/internal/storage"
	"github.com/siteops/doc-validator-api/internal/utils"
)

// trackerTTL keeps finished-run progress entries around long enough for
// late polls, then evicts them; the database remains the source of truth.
const trackerTTL = 30 * time.Minute

type ValidationService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	RunValidation(ctx context.Context, req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error)
	GetRun(ctx context.Context, runID string) (*models.ValidationRun, *models.RunProgress, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	CancelRun(runID string) error
	RenderReport(ctx context.Context, runID, format string, w io.Writer) error
}

type validationService struct {
	repo    repository.Repository
	storage storage.Storage
	catalog *rules.Store
	engine  *engine.Engine
	tracker *runTracker
	logger  *utils.Logger
}

func NewValidationService(repo repository.Repository, store storage.Storage, catalog *rules.Store, logger *utils.Logger) ValidationService {
	return &validationService{
		repo:    repo,
		storage: store,
		catalog: catalog,
		engine:  engine.New(logger),
		tracker: newRunTracker(trackerTTL),
		logger:  logger,
	}
}

func (s *validationService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	switch req.DocumentType {
	case models.DocumentSiteSurveyPart1, models.DocumentSiteSurveyPart2, models.DocumentInstallPlan:
	default:
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unknown document type %q", req.DocumentType))
	}
	if err := validateFileKind(req.DocumentType, req.Filename); err != nil {
		return nil, err
	}

	// Extract up front so unreadable uploads are rejected immediately rather
	// than surfacing later as a failed validation run.
	doc, err := extractor.Extract(req.DocumentType, req.Filename, req.File)
	if err != nil {
		return nil, utils.NewBadRequestError(err.Error())
	}
	if len(doc.Content) == 0 {
		s.logger.Warn("No content extracted from upload",
			"filename", req.Filename, "errors", strings.Join(doc.ProcessingErrors, "; "))
		return nil, utils.NewBadRequestError("No content could be extracted from the document. The file may be empty or corrupted")
	}

	docID := utils.GenerateID()
	storageKey := fmt.Sprintf("documents/%s/%s", docID, req.Filename)
	if err := s.storage.Upload(ctx, storageKey, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload to object storage", "error", err, "storage_key", storageKey)
		return nil, utils.NewInternalError("Failed to store document")
	}

	now := time.Now()
	stored := &models.StoredDocument{
		ID:          docID,
		Filename:    req.Filename,
		Type:        req.DocumentType,
		ContentType: req.ContentType,
		FileSize:    int64(len(req.File)),
		StorageKey:  storageKey,
		CreatedAt:   now,
	}
	if err := s.repo.CreateDocument(ctx, stored); err != nil {
		s.logger.Error("Failed to save document metadata", "error", err, "doc_id", docID)
		_ = s.storage.Delete(ctx, storageKey)
		return nil, utils.NewInternalError("Failed to save document metadata")
	}

	s.logger.Info("Document uploaded",
		"id", docID,
		"filename", req.Filename,
		"document_type", req.DocumentType,
		"sections", len(doc.Content),
		"processing_errors", len(doc.ProcessingErrors))

	return &models.UploadResponse{
		ID:           docID,
		Filename:     req.Filename,
		DocumentType: req.DocumentType,
		FileSize:     stored.FileSize,
		CreatedAt:    now,
		Message:      "Document uploaded. Reference it in POST /validations to run the checklist.",
	}, nil
}

// RunValidation loads and extracts the referenced documents, then runs the
// full catalog. Synchronous by default; with Async the run id is returned
// immediately and progress is available through GetRun.
func (s *validationService) RunValidation(ctx context.Context, req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error) {
	if len(req.DocumentIDs) == 0 {
		return nil, nil, utils.NewBadRequestError("At least one document id is required")
	}

	docs, err := s.loadDocuments(ctx, req.DocumentIDs)
	if err != nil {
		return nil, nil, err
	}

	catalog := s.catalog.Catalog()
	runID := utils.GenerateID()
	s.tracker.start(runID, len(catalog.Checks))

	if req.Async {
		// Detached from the request context: the run outlives the HTTP
		// request that started it.
		go s.executeRun(context.Background(), runID, catalog, docs, req.ProjectContext)
		progress, _ := s.tracker.inFlight(runID)
		return nil, &progress, nil
	}

	run := s.executeRun(ctx, runID, catalog, docs, req.ProjectContext)
	return run, nil, nil
}

// executeRun drives the engine, honors cancellation by discarding the
// result, and persists the outcome.
func (s *validationService) executeRun(ctx context.Context, runID string, catalog *rules.Catalog, docs []*models.Document, pctx models.ProjectContext) *models.ValidationRun {
	run := s.engine.Run(ctx, runID, catalog, docs, pctx, func(completed, total int) {
		s.tracker.update(runID, completed)
	})

	if s.tracker.isCancelled(runID) {
		discarded := &models.ValidationRun{
			RunID:             run.RunID,
			Status:            models.RunStatusCancelled,
			CreatedAt:         run.CreatedAt,
			DocumentKeys:      run.DocumentKeys,
			ConfigName:        run.ConfigName,
			IndividualResults: map[string]*models.CheckResult{},
			ExecutionMS:       run.ExecutionMS,
			ErrorMessage:      "cancelled by user",
		}
		run = discarded
	}

	if err := s.repo.SaveRun(ctx, run); err != nil {
		s.logger.Error("Failed to persist validation run", "error", err, "run_id", run.RunID)
	}
	s.tracker.finish(runID, run.Status)

	return run
}

func (s *validationService) loadDocuments(ctx context.Context, ids []string) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(ids))
	for _, id := range ids {
		stored, err := s.repo.GetDocument(ctx, id)
		if err != nil {
			s.logger.Error("Failed to load document metadata", "error", err, "doc_id", id)
			return nil, utils.NewInternalError("Failed to load document metadata")
		}
		if stored == nil {
			return nil, utils.NewNotFoundError(fmt.Sprintf("Document %s not found", id))
		}

		doc := s.fetchAndExtract(ctx, stored)
		docs = append(docs, doc)
	}
	return docs, nil
}

// fetchAndExtract never fails the run for one bad document: download or
// extraction problems become processing_errors on an empty document and the
// engine decides whether anything is left to validate.
func (s *validationService) fetchAndExtract(ctx context.Context, stored *models.StoredDocument) *models.Document {
	data, err := s.storage.Download(ctx, stored.StorageKey)
	if err != nil {
		s.logger.Error("Failed to download document", "error", err, "storage_key", stored.StorageKey)
		return &models.Document{
			ID:               stored.ID,
			Type:             stored.Type,
			Filename:         stored.Filename,
			StorageKey:       stored.StorageKey,
			Content:          models.ContentTree{},
			ProcessingErrors: []string{fmt.Sprintf("download failed: %v", err)},
		}
	}

	doc, err := extractor.Extract(stored.Type, stored.Filename, data)
	if err != nil {
		return &models.Document{
			ID:               stored.ID,
			Type:             stored.Type,
			Filename:         stored.Filename,
			StorageKey:       stored.StorageKey,
			Content:          models.ContentTree{},
			ProcessingErrors: []string{err.Error()},
		}
	}

	doc.ID = stored.ID
	doc.StorageKey = stored.StorageKey
	return doc
}

func (s *validationService) GetRun(ctx context.Context, runID string) (*models.ValidationRun, *models.RunProgress, error) {
	if progress, ok := s.tracker.inFlight(runID); ok {
		return nil, &progress, nil
	}

	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		s.logger.Error("Failed to load run", "error", err, "run_id", runID)
		return nil, nil, utils.NewInternalError("Failed to retrieve validation run")
	}
	if run == nil {
		return nil, nil, utils.NewNotFoundError("Validation run not found")
	}

	// Category scores, critical issues, and the action plan are derived, not
	// stored; rebuild them from the persisted results.
	if run.Status == models.RunStatusCompleted {
		summary := engine.Aggregate(s.catalog.Catalog(), run.IndividualResults)
		run.OverallStatus = summary.OverallStatus
		run.CategoryScores = summary.CategoryScores
		run.CriticalIssues = summary.CriticalIssues
		run.Recommendations = summary.Recommendations
		run.ActionPlan = summary.ActionPlan
	}

	return run, nil, nil
}

func (s *validationService) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	summaries, err := s.repo.ListRuns(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list runs", "error", err)
		return nil, utils.NewInternalError("Failed to list validation runs")
	}
	return summaries, nil
}

func (s *validationService) CancelRun(runID string) error {
	if !s.tracker.cancel(runID) {
		return utils.NewConflictError("Run is not in progress")
	}
	s.logger.Info("Run cancellation requested", "run_id", runID)
	return nil
}

func (s *validationService) RenderReport(ctx context.Context, runID, format string, w io.Writer) error {
	run, _, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return utils.NewConflictError("Run is still in progress")
	}

	switch format {
	case "csv":
		if err := report.WriteCSV(w, run); err != nil {
			s.logger.Error("Failed to render CSV report", "error", err, "run_id", runID)
			return utils.NewInternalError("Failed to render report")
		}
	case "xlsx":
		if err := report.WriteXLSX(w, run); err != nil {
			s.logger.Error("Failed to render XLSX report", "error", err, "run_id", runID)
			return utils.NewInternalError("Failed to render report")
		}
	default:
		return utils.NewBadRequestError(fmt.Sprintf("Unsupported report format %q", format))
	}

	return nil
}

func validateFileKind(docType models.DocumentType, filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	switch docType {
	case models.DocumentInstallPlan:
		if ext != ".pdf" {
			return utils.NewBadRequestError("Install plans must be PDF files")
		}
	default:
		if ext != ".xlsx" && ext != ".xlsm" {
			return utils.NewBadRequestError("Site surveys must be XLSX workbooks")
		}
	}
	return nil
}
