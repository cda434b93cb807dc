package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/lawagent/internal/application/spotter"
	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/middleware"
	"github.com/bryanwahyu/lawagent/internal/observability"
)

// Fallback details for failures that are not the caller's fault.
const (
	MsgAnalysisFailed = "Unable to analyze the document."
	MsgFollowupFailed = "Unable to generate a follow-up answer."
	MsgInvalidJSON    = "Request body must be valid JSON."
	MsgFileRequired   = "A file upload is required."
	MsgNoHistory      = "Analysis history is not configured."
	MsgNotFound       = "Analysis not found."
)

const maxJSONBody = middleware.MaxUploadBytes + 1<<20

// Options configures the router. Zero values disable the corresponding
// middleware.
type Options struct {
	APIKeys        map[string]string
	AllowedOrigins []string
	RateLimit      int // requests per second per client, burst twice that
	Checkers       map[string]middleware.HealthChecker
	// Done stops the idle bucket sweeper when closed.
	Done           <-chan struct{}
}

type Router struct {
	svc *spotter.Service
}

// NewRouter serves the issue-spotter API on top of svc.
func NewRouter(svc *spotter.Service, opts Options) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimit*2, opts.RateLimit)
		if opts.Done != nil {
			go limiter.RunSweeper(time.Minute, opts.Done)
		}
		mux.Use(middleware.RateLimitMiddleware(limiter, time.Second))
	}

	health := middleware.HealthHandler("lawagent", opts.Checkers)
	mux.Get("/health", health)
	mux.Get("/healthz", health)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/issue-spotter/text", r.wrap(r.handleText, MsgAnalysisFailed))
		rt.Post("/issue-spotter/upload", r.wrap(r.handleUpload, MsgAnalysisFailed))
		rt.Get("/issue-spotter/analyses", r.wrap(r.handleRecent, MsgAnalysisFailed))
		rt.Get("/issue-spotter/analyses/{id}", r.wrap(r.handleGet, MsgAnalysisFailed))
		rt.Post("/followup", r.wrap(r.handleFollowup, MsgFollowupFailed))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError is a malformed request, reported as 400 with its message.
type requestError string

func (e requestError) Error() string { return string(e) }

// wrap turns a handler error into a {"detail": ...} response. fallback is
// the detail for unexpected failures.
func (r *Router) wrap(h handlerFunc, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, detail := errorStatus(err, fallback)
		if status >= http.StatusInternalServerError || errors.As(err, new(*ai.ProviderError)) {
			observability.LoggerFromContext(req.Context()).Error("request failed",
				"path", req.URL.Path, "status", status, "error", err)
		}
		middleware.WriteDetail(w, status, detail)
	}
}

func errorStatus(err error, fallback string) (int, string) {
	var (
		reqErr  requestError
		valErr  *spotter.ValidationError
		provErr *ai.ProviderError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, string(reqErr)
	case errors.As(err, &valErr):
		return http.StatusBadRequest, valErr.Message
	case errors.Is(err, ai.ErrQuotaExceeded):
		if errors.As(err, &provErr) {
			return http.StatusTooManyRequests, provErr.Message
		}
		return http.StatusTooManyRequests, "AI quota exceeded."
	case errors.As(err, &provErr):
		return http.StatusBadRequest, provErr.Message
	case errors.Is(err, spotter.ErrNoHistory):
		return http.StatusNotFound, MsgNoHistory
	}
	return http.StatusInternalServerError, fallback
}

// POST /api/issue-spotter/text
// Body: {"text": "...", "instructions": "...", "style": null, "return_json": false}
func (r *Router) handleText(w http.ResponseWriter, req *http.Request) error {
	var body analysis.TextRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	result, err := r.svc.AnalyzeText(req.Context(), body)
	middleware.RecordAnalysis(err != nil)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /api/issue-spotter/upload
// Multipart fields: instructions, return_json, style (optional), file.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBody)
	if err := req.ParseMultipartForm(middleware.MaxUploadBytes); err != nil {
		return requestError("Upload must be multipart/form-data no larger than 10 MB.")
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return requestError(MsgFileRequired)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := middleware.ValidateUpload(header.Filename, contentType, header.Size); err != nil {
		return requestError(err.Error())
	}
	data, err := io.ReadAll(io.LimitReader(file, middleware.MaxUploadBytes+1))
	if err != nil {
		return requestError(MsgFileRequired)
	}
	text, err := middleware.DecodeText(data)
	if err != nil {
		return requestError(err.Error())
	}

	result, err := r.svc.AnalyzeUpload(req.Context(), spotter.UploadCommand{
		Instructions: req.FormValue("instructions"),
		Style:        req.FormValue("style"),
		ReturnJSON:   formBool(req.FormValue("return_json")),
		File:         analysis.Upload{Name: header.Filename, ContentType: contentType, Size: header.Size},
		Data:         data,
		Text:         text,
	})
	middleware.RecordAnalysis(err != nil)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /api/followup
// Body: {"question", "context", "instruction", "document", "history": [{"role", "content"}]}
func (r *Router) handleFollowup(w http.ResponseWriter, req *http.Request) error {
	var body analysis.FollowupRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	resp, err := r.svc.Followup(req.Context(), body)
	middleware.RecordFollowup(err != nil)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, resp)
}

// GET /api/issue-spotter/analyses?limit=20
func (r *Router) handleRecent(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Recent(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*analysis.Record{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /api/issue-spotter/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.svc.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	if rec == nil {
		middleware.WriteDetail(w, http.StatusNotFound, MsgNotFound)
		return nil
	}
	return writeJSON(w, http.StatusOK, rec)
}

func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxJSONBody)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return requestError(MsgInvalidJSON)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// formBool accepts the spellings HTML forms and scripts send.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
