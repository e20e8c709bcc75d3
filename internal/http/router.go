package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"speech-digest-service/internal/app"
	"speech-digest-service/internal/apperrors"
	"speech-digest-service/internal/export"
	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/schema"
	"speech-digest-service/internal/service/pipeline"
)

// DefaultMaxUploadBytes caps multipart uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 100 * 1024 * 1024

// multipartMemory is how much of an upload is buffered in memory before spilling to disk.
const multipartMemory = 32 << 20

// Digester is the submission surface the API serves.
type Digester interface {
	Submit(ctx context.Context, sub pipeline.Submission) (*models.ProcessingResult, error)
	Result(ctx context.Context, id string) (*models.ProcessingResult, error)
	ResultText(ctx context.Context, id string) ([]byte, error)
}

// RemoteRequest is the body of POST /v1/submissions/remote.
type RemoteRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// Handler serves the submission API.
type Handler struct {
	digest    Digester
	ready     func() error
	maxUpload int64
	validator *schema.Validator
}

// NewHandler creates a Handler. ready may be nil; maxUpload <= 0 selects DefaultMaxUploadBytes.
func NewHandler(d Digester, ready func() error, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{digest: d, ready: ready, maxUpload: maxUpload, validator: schema.New()}
}

// NewRouter constructs the HTTP router for a started application.
func NewRouter(application *app.Application) http.Handler {
	return NewHandler(application.Digest, application.Ready, application.Cfg.Service.MaxUploadBytes).Routes()
}

// Routes returns the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.HTTPMiddleware(metrics.DefaultMetrics))
	r.Use(middleware.Recoverer)

	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", h.readiness)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/submissions/file", h.submitFile)
		r.Post("/submissions/remote", h.submitRemote)
		r.Get("/results/{id}", h.getResult)
		r.Get("/results/{id}/text", h.getResultText)
	})

	return r
}

func (h *Handler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) submitFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.InvalidInput(`multipart field "file" is required`))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, uploadError(err))
		return
	}

	result, err := h.digest.Submit(r.Context(), pipeline.FileSubmission{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) submitRemote(w http.ResponseWriter, r *http.Request) {
	var req RemoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("request body must be JSON with a url field").WithCause(err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.digest.Submit(r.Context(), pipeline.RemoteSubmission{URL: req.URL})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.digest.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.JSON(result)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.JSONContentType)
	if cd := mime.FormatMediaType("inline", map[string]string{"filename": export.FileStem(result) + ".json"}); cd != "" {
		w.Header().Set("Content-Disposition", cd)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) getResultText(w http.ResponseWriter, r *http.Request) {
	data, err := h.digest.ResultText(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.TextContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.CodeInvalidInput, "upload exceeds the size limit", http.StatusRequestEntityTooLarge).
			WithDetail("limit", tooLarge.Limit)
	}
	return apperrors.InvalidInput("upload could not be read").WithCause(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", export.JSONContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError answers with the AppError's status and {code, message}. Errors outside the
// taxonomy are logged and reported as INTERNAL_ERROR without their text.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Code: apperrors.CodeInternal, Message: "internal error"}
	if appErr, ok := apperrors.As(err); ok {
		resp = ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	} else {
		log.Error().Err(err).Msg("Unclassified request failure")
	}
	writeJSON(w, apperrors.HTTPStatus(err), resp)
}
