package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/kiesman99/maskmap/internal/api"
	"github.com/kiesman99/maskmap/internal/bake"
)

var _ api.ServerInterface = (*Server)(nil)

// maxUploadMemory bounds the multipart form held in memory; larger parts
// spill to temporary files.
const maxUploadMemory = 32 << 20

// Upload form fields.
const (
	fieldAlbedo = "albedo"
)

var overrideFields = []bake.Stage{
	bake.StageEmissive,
	bake.StageRoughness,
	bake.StageMetallic,
	bake.StageSpecular,
}

// Server implements the ServerInterface from the generated API. It serves
// bakes over HTTP. Every bake gets its own directory under
// workdir holding the uploaded inputs and the generated outputs.
type Server struct {
	startTime time.Time
	version   string
	workdir   string
	fs        afero.Fs
	baker     *bake.Baker
}

// NewServer creates a new server instance. A nil fs uses the OS
// filesystem.
func NewServer(version, workdir string, fs afero.Fs) *Server {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		workdir:   workdir,
		fs:        fs,
		baker:     bake.New(fs),
	}
}

// NewRouter mounts the API under /api/v1 with the standard middleware
// stack.
func NewRouter(s *Server, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	// CORS middleware for API access
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Mount API routes at /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		api.HandlerWithOptions(s, api.ChiServerOptions{
			BaseRouter:       r,
			ErrorHandlerFunc: s.handleParamError,
		})
	})

	// Legacy health endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	return r
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// CreateBake accepts a multipart upload and runs one bake.
func (s *Server) CreateBake(w http.ResponseWriter, r *http.Request, params api.CreateBakeParams) {
	requestID := getRequestID(r)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDREQUEST,
			"Expected a multipart/form-data body", nil, &requestID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	if _, ok := r.MultipartForm.File[fieldAlbedo]; !ok {
		s.writeFieldError(w, fieldAlbedo, "albedo file is required", &requestID)
		return
	}

	id := uuid.New()
	dir := filepath.Join(s.workdir, id.String())
	inputDir := filepath.Join(dir, "input")
	if err := s.fs.MkdirAll(inputDir, 0o755); err != nil {
		log.Printf("Error creating bake directory %s: %v", dir, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
			"Internal server error", nil, &requestID)
		return
	}

	cfg := &bake.Config{
		GenerateNormal: params.GenerateNormal != nil && *params.GenerateNormal,
		OutputDir:      filepath.Join(dir, "output"),
	}

	albedo, err := s.storeUpload(r.MultipartForm, fieldAlbedo, inputDir, "")
	if err != nil {
		s.writeFieldError(w, fieldAlbedo, err.Error(), &requestID)
		return
	}
	cfg.AlbedoPath = albedo

	for _, stage := range overrideFields {
		field := stage.String()
		if _, ok := r.MultipartForm.File[field]; !ok {
			continue
		}
		path, err := s.storeUpload(r.MultipartForm, field, inputDir, field+"_")
		if err != nil {
			s.writeFieldError(w, field, err.Error(), &requestID)
			return
		}
		switch stage {
		case bake.StageEmissive:
			cfg.EmissivePath = path
		case bake.StageRoughness:
			cfg.RoughnessPath = path
		case bake.StageMetallic:
			cfg.MetallicPath = path
		case bake.StageSpecular:
			cfg.SpecularPath = path
		}
	}

	var progress []api.ProgressEvent
	res, err := s.baker.Run(r.Context(), cfg, func(fraction float64, label string) {
		progress = append(progress, api.ProgressEvent{Fraction: fraction, Label: label})
	})
	if err != nil {
		s.handleBakeError(w, err, &requestID)
		return
	}

	response := api.BakeResponse{
		Id:       id.String(),
		Width:    res.Size.X,
		Height:   res.Size.Y,
		Files:    []string{},
		Copied:   []string{},
		Progress: progress,
	}
	for _, f := range res.Outputs.Files() {
		response.Files = append(response.Files, filepath.Base(f))
	}
	for _, stage := range overrideFields {
		if res.Copied[stage] {
			response.Copied = append(response.Copied, stage.String())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding bake response: %v", err)
	}
}

// GetBakeFile streams one output PNG of a finished bake.
func (s *Server) GetBakeFile(w http.ResponseWriter, r *http.Request, bakeID string, file string) {
	requestID := getRequestID(r)

	id, err := uuid.Parse(bakeID)
	if err != nil || file != filepath.Base(file) || !strings.HasSuffix(file, ".png") {
		s.writeErrorResponse(w, http.StatusNotFound, api.NOTFOUND, "No such bake output", nil, &requestID)
		return
	}

	path := filepath.Join(s.workdir, id.String(), "output", file)
	f, err := s.fs.Open(path)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, api.NOTFOUND, "No such bake output", nil, &requestID)
		return
	}
	defer f.Close()

	if st, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(st.Size(), 10))
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// storeUpload copies the first file of field into dir and returns its path.
func (s *Server) storeUpload(form *multipart.Form, field, dir, prefix string) (string, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return "", errors.Errorf("%s file is required", field)
	}
	fh := headers[0]

	name := filepath.Base(filepath.Clean("/" + fh.Filename))
	if name == "/" || name == "." {
		name = field + ".png"
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrapf(err, "open %s upload", field)
	}
	defer src.Close()

	path := filepath.Join(dir, prefix+name)
	dst, err := s.fs.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "store %s upload", field)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.Wrapf(err, "store %s upload", field)
	}
	return path, dst.Close()
}

// handleBakeError maps pipeline failures onto HTTP errors
func (s *Server) handleBakeError(w http.ResponseWriter, err error, requestID *string) {
	var be *bake.Error
	if !errors.As(err, &be) {
		if errors.Is(err, context.DeadlineExceeded) {
			s.writeErrorResponse(w, http.StatusGatewayTimeout, api.INTERNALERROR,
				"Bake timed out", nil, requestID)
			return
		}
		log.Printf("Bake failed: %v", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
			"Internal server error", nil, requestID)
		return
	}

	stage := be.Stage.String()
	switch be.Kind {
	case bake.InvalidInput:
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDINPUT,
			"Albedo texture could not be read", &stage, requestID)
	case bake.DecodeError:
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, api.DECODEERROR,
			"Failed to decode "+stage+" texture", &stage, requestID)
	case bake.EncodeError:
		log.Printf("Bake output failed: %v", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.ENCODEERROR,
			"Failed to write "+stage+" texture", &stage, requestID)
	default:
		log.Printf("Bake computation failed: %v", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.COMPUTATIONERROR,
			"Failed to generate "+stage+" texture", &stage, requestID)
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode api.ErrorResponseError, message string, stage, requestID *string) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		Stage:     stage,
		RequestId: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// writeFieldError writes a validation error naming the offending field
func (s *Server) writeFieldError(w http.ResponseWriter, field, message string, requestID *string) {
	response := api.ErrorResponse{
		Error:     api.INVALIDREQUEST,
		Message:   message,
		Field:     &field,
		RequestId: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(response)
}

// handleParamError reports a request parameter the generated wrapper could
// not bind
func (s *Server) handleParamError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := getRequestID(r)
	var pe *api.InvalidParamFormatError
	if errors.As(err, &pe) {
		s.writeFieldError(w, pe.ParamName, err.Error(), &requestID)
		return
	}
	s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDREQUEST, err.Error(), nil, &requestID)
}

// getRequestID returns the chi request ID, generating one outside the
// middleware stack.
func getRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return "req_" + strconv.FormatInt(time.Now().UnixNano(), 10)
}
