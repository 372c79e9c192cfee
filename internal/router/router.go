package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/siteops/doc-validator-api/internal/handlers"
	"github.com/siteops/doc-validator-api/internal/middleware"
	"github.com/siteops/doc-validator-api/internal/services"
	"github.com/siteops/doc-validator-api/internal/utils"
)

func NewRouter(validation services.ValidationService, analytics services.AnalyticsService, maxFileSize int64, logger *utils.Logger) http.Handler {
	r := mux.NewRouter()

	// Middlewares
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Recovery(logger))

	handler := handlers.NewValidationHandler(validation, analytics, maxFileSize, logger)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	// Documents
	api.HandleFunc("/documents/upload", handler.UploadDocument).Methods(http.MethodPost)

	// Validation runs
	api.HandleFunc("/validations", handler.StartValidation).Methods(http.MethodPost)
	api.HandleFunc("/validations", handler.ListValidations).Methods(http.MethodGet)
	api.HandleFunc("/validations/{id}", handler.GetValidation).Methods(http.MethodGet)
	api.HandleFunc("/validations/{id}/cancel", handler.CancelValidation).Methods(http.MethodPost)
	api.HandleFunc("/validations/{id}/report", handler.DownloadReport).Methods(http.MethodGet)

	// Analytics
	api.HandleFunc("/analytics/trends", handler.GetTrends).Methods(http.MethodGet)

	return r
}
