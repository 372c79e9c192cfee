package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/router"
	"github.com/siteops/doc-validator-api/internal/utils"
)

// stubValidationService scripts responses per test.
type stubValidationService struct {
	uploadFn func(req *models.UploadRequest) (*models.UploadResponse, error)
	runFn    func(req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error)
	getFn    func(runID string) (*models.ValidationRun, *models.RunProgress, error)
	cancelFn func(runID string) error
}

func (s *stubValidationService) UploadDocument(_ context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	return s.uploadFn(req)
}

func (s *stubValidationService) RunValidation(_ context.Context, req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error) {
	return s.runFn(req)
}

func (s *stubValidationService) GetRun(_ context.Context, runID string) (*models.ValidationRun, *models.RunProgress, error) {
	return s.getFn(runID)
}

func (s *stubValidationService) ListRuns(_ context.Context, _ int) ([]models.RunSummary, error) {
	return []models.RunSummary{{RunID: "run-1", Status: models.RunStatusCompleted, OverallScore: 0.8}}, nil
}

func (s *stubValidationService) CancelRun(runID string) error {
	return s.cancelFn(runID)
}

func (s *stubValidationService) RenderReport(_ context.Context, runID, format string, w io.Writer) error {
	if format == "csv" {
		_, err := w.Write([]byte("run_id," + runID + "\n"))
		return err
	}
	return utils.NewBadRequestError("Unsupported report format")
}

type stubAnalyticsService struct{}

func (s *stubAnalyticsService) Trends(_ context.Context, days int) (*models.TrendReport, error) {
	return &models.TrendReport{Days: days, RunCount: 2, AvgOverallScore: 0.9}, nil
}

func newTestRouter(svc *stubValidationService) http.Handler {
	return router.NewRouter(svc, &stubAnalyticsService{}, 1<<20, utils.NewLogger("error"))
}

func multipartUpload(t *testing.T, fieldFile bool, docType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fieldFile {
		fw, err := mw.CreateFormFile("file", "survey.xlsx")
		require.NoError(t, err)
		_, err = fw.Write([]byte("workbook bytes"))
		require.NoError(t, err)
	}
	if docType != "" {
		require.NoError(t, mw.WriteField("document_type", docType))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	newTestRouter(&stubValidationService{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
}

func TestUploadDocument(t *testing.T) {
	svc := &stubValidationService{
		uploadFn: func(req *models.UploadRequest) (*models.UploadResponse, error) {
			assert.Equal(t, "survey.xlsx", req.Filename)
			assert.Equal(t, models.DocumentSiteSurveyPart1, req.DocumentType)
			assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", req.ContentType)
			return &models.UploadResponse{ID: "doc-1", Filename: req.Filename, DocumentType: req.DocumentType, CreatedAt: time.Now()}, nil
		},
	}

	body, contentType := multipartUpload(t, true, "site_survey_1")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.ID)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	body, contentType := multipartUpload(t, false, "site_survey_1")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	newTestRouter(&stubValidationService{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file provided")
}

func TestUploadDocument_MissingType(t *testing.T) {
	body, contentType := multipartUpload(t, true, "")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	newTestRouter(&stubValidationService{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "document_type")
}

func TestUploadDocument_TooLarge(t *testing.T) {
	body, contentType := multipartUpload(t, true, "site_survey_1")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = 10 << 20
	newTestRouter(&stubValidationService{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "upload limit")
}

func TestStartValidation_Sync(t *testing.T) {
	svc := &stubValidationService{
		runFn: func(req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error) {
			assert.Equal(t, []string{"doc-1"}, req.DocumentIDs)
			return &models.ValidationRun{RunID: "run-1", Status: models.RunStatusCompleted, OverallScore: 0.8}, nil, nil
		},
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations",
		strings.NewReader(`{"document_ids":["doc-1"]}`))
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"run_id":"run-1"`)
}

func TestStartValidation_Async(t *testing.T) {
	svc := &stubValidationService{
		runFn: func(req *models.ValidationRequest) (*models.ValidationRun, *models.RunProgress, error) {
			require.True(t, req.Async)
			return nil, &models.RunProgress{RunID: "run-1", Status: models.RunStatusRunning, Total: 26}, nil
		},
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations",
		strings.NewReader(`{"document_ids":["doc-1"],"async":true}`))
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"RUNNING"`)
}

func TestStartValidation_BadBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", strings.NewReader(`{`))
	newTestRouter(&stubValidationService{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetValidation(t *testing.T) {
	svc := &stubValidationService{
		getFn: func(runID string) (*models.ValidationRun, *models.RunProgress, error) {
			if runID == "run-running" {
				return nil, &models.RunProgress{RunID: runID, Status: models.RunStatusRunning, Completed: 3, Total: 26}, nil
			}
			if runID == "run-1" {
				return &models.ValidationRun{RunID: runID, Status: models.RunStatusCompleted}, nil, nil
			}
			return nil, nil, utils.NewNotFoundError("Validation run not found")
		},
	}
	r := newTestRouter(svc)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations/run-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"COMPLETED"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations/run-running", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"completed_checks":3`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListValidations(t *testing.T) {
	r := newTestRouter(&stubValidationService{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"runs"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelValidation(t *testing.T) {
	svc := &stubValidationService{
		cancelFn: func(runID string) error {
			if runID == "run-1" {
				return nil
			}
			return utils.NewConflictError("Run is not in progress")
		},
	}
	r := newTestRouter(svc)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/validations/run-1/cancel", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), `"CANCELLED"`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/validations/run-2/cancel", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDownloadReport(t *testing.T) {
	r := newTestRouter(&stubValidationService{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations/run-1/report", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "validation-run-1.csv")
	assert.Contains(t, rr.Body.String(), "run-1")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/validations/run-1/report?format=docx", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetTrends(t *testing.T) {
	r := newTestRouter(&stubValidationService{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?days=7", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"days":7`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?days=soon", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
