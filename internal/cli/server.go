package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/matchthumb/pkg/buildinfo"
	"github.com/matzehuels/matchthumb/pkg/errors"
	"github.com/matzehuels/matchthumb/pkg/jobs"
	"github.com/matzehuels/matchthumb/pkg/observability"
	"github.com/matzehuels/matchthumb/pkg/pipeline"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// server is the HTTP control surface. Compositions and trims go through the
// dispatcher; previews are rendered inline.
type server struct {
	runner     *pipeline.Runner
	dispatcher *jobs.Dispatcher
	outputDir  string
	counters   *observability.Counters
	logger     *log.Logger
}

// jobRequest is the body of POST /jobs.
type jobRequest struct {
	pipeline.Request

	// Thumbnail requests a thumbnail with extension Ext (default jpg).
	Thumbnail bool   `json:"thumbnail"`
	Ext       string `json:"ext,omitempty"`

	// Video requests a trimmed copy of a recording.
	Video *videoRequest `json:"video,omitempty"`
}

type videoRequest struct {
	Input string `json:"input"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r jobRequest) submission(outputDir string) submission {
	s := submission{
		Match:     r.Request,
		OutputDir: outputDir,
		Ext:       r.Ext,
		Thumbnail: r.Thumbnail,
	}
	// Output locations are chosen by the server, never by the client.
	s.Match.Output = ""
	if r.Video != nil {
		s.Video = true
		s.VideoInput = r.Video.Input
		s.Start = r.Video.Start
		s.End = r.Video.End
	}
	return s
}

// routes builds the router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/sprites", s.handleSprites)
	r.Post("/reload", s.handleReload)
	r.Post("/preview", s.handlePreview)
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/{id}", s.handleJob)
	})
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.runner.Store.Current()
	body := map[string]any{
		"status":     "ok",
		"version":    buildinfo.Version,
		"generation": snap.Generation,
		"loaded_at":  snap.LoadedAt,
	}
	if s.counters != nil {
		body["counters"] = s.counters.Snapshot()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) handleSprites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sprites": s.runner.Store.Sprites()})
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Reload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Configuration reloaded.",
		"generation": s.runner.Store.Current().Generation,
	})
}

func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	spec, err := req.submission(s.outputDir).spec()
	if err != nil {
		writeError(w, err)
		return
	}

	job, _, err := s.dispatcher.Submit(r.Context(), spec)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.dispatcher.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handlePreview renders a thumbnail synchronously and returns it as PNG
// without writing anything to disk.
func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	img, result, err := s.runner.ComposeImage(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := pipeline.Encode(&buf, img, imaging.PNG); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Config-Generation", strconv.FormatUint(result.Generation, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, httpStatus(code), map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}

func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConfigLoad, errors.ErrCodeResourceLoad:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
