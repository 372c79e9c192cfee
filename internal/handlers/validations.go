package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/siteops/doc-validator-api/internal/models"
	"github.com/siteops/doc-validator-api/internal/services"
	"github.com/siteops/doc-validator-api/internal/utils"
)

type ValidationHandler struct {
	service     services.ValidationService
	analytics   services.AnalyticsService
	maxFileSize int64
	logger      *utils.Logger
}

func NewValidationHandler(service services.ValidationService, analytics services.AnalyticsService, maxFileSize int64, logger *utils.Logger) *ValidationHandler {
	return &ValidationHandler{
		service:     service,
		analytics:   analytics,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

func (h *ValidationHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxFileSize {
		h.respondError(w, utils.NewBadRequestError("File size exceeds upload limit"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.respondError(w, utils.NewBadRequestError("File size exceeds upload limit"))
			return
		}
		h.respondError(w, utils.NewBadRequestError("Invalid form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	docType := models.DocumentType(r.FormValue("document_type"))
	if docType == "" {
		h.respondError(w, utils.NewBadRequestError("document_type form field is required"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		h.respondError(w, utils.NewInternalError("Failed to read file"))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		h.respondError(w, utils.NewBadRequestError("File size exceeds upload limit"))
		return
	}
	if len(data) == 0 {
		h.respondError(w, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	req := &models.UploadRequest{
		File:         data,
		Filename:     header.Filename,
		ContentType:  contentTypeFor(header.Filename, header.Header.Get("Content-Type")),
		DocumentType: docType,
	}

	resp, err := h.service.UploadDocument(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *ValidationHandler) StartValidation(w http.ResponseWriter, r *http.Request) {
	var req models.ValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, utils.NewBadRequestError("Invalid request body"))
		return
	}

	run, progress, err := h.service.RunValidation(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if progress != nil {
		h.respondJSON(w, http.StatusAccepted, progress)
		return
	}
	h.respondJSON(w, http.StatusOK, run)
}

func (h *ValidationHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if runID == "" {
		h.respondError(w, utils.NewBadRequestError("Run ID is required"))
		return
	}

	run, progress, err := h.service.GetRun(r.Context(), runID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if progress != nil {
		h.respondJSON(w, http.StatusOK, progress)
		return
	}
	h.respondJSON(w, http.StatusOK, run)
}

func (h *ValidationHandler) ListValidations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(w, utils.NewBadRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	summaries, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"runs": summaries})
}

func (h *ValidationHandler) CancelValidation(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if runID == "" {
		h.respondError(w, utils.NewBadRequestError("Run ID is required"))
		return
	}

	if err := h.service.CancelRun(runID); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(models.RunStatusCancelled),
	})
}

func (h *ValidationHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		h.respondError(w, utils.NewBadRequestError(fmt.Sprintf("Unsupported report format %q", format)))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=validation-%s.%s", runID, format))

	if err := h.service.RenderReport(r.Context(), runID, format, w); err != nil {
		// Headers may already be written; reset what we can and report.
		w.Header().Del("Content-Disposition")
		h.respondError(w, err)
		return
	}
}

func (h *ValidationHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondError(w, utils.NewBadRequestError("days must be a positive integer"))
			return
		}
		days = n
	}

	trends, err := h.analytics.Trends(r.Context(), days)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, trends)
}

func contentTypeFor(filename, headerContentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx", ".xlsm":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return headerContentType
}

func (h *ValidationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *ValidationHandler) respondError(w http.ResponseWriter, err error) {
	var status int
	var message string

	switch e := err.(type) {
	case *utils.AppError:
		status = e.StatusCode
		message = e.Message
	default:
		status = http.StatusInternalServerError
		message = "Internal server error"
	}

	h.logger.Error("Request error", "status", status, "error", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
