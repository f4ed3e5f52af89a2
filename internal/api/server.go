package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/gnemet/SlideText/internal/database"
	"github.com/gnemet/SlideText/internal/extractor"
	"github.com/gnemet/SlideText/internal/pptx"
	"github.com/gnemet/SlideText/internal/report"
)

// maxUploadSize bounds multipart uploads held in memory and on disk.
const maxUploadSize = 64 << 20

// Extractor turns a presentation file into slide records.
type Extractor interface {
	ExtractFromFile(path string) ([]extractor.SlideContent, error)
}

// Repository serves previously stored extractions.
type Repository interface {
	ListPresentations() ([]database.Presentation, error)
	Slides(presentationID int) ([]database.SlideRecord, error)
}

type Options struct {
	UploadDir   string
	CORSOrigins []string
	// Events, when set, is fanned out to /api/events subscribers.
	Events <-chan string
	// Processing reports whether the stage observer has work in flight.
	Processing func() bool
}

type Server struct {
	extractor Extractor
	repo      Repository
	opts      Options
	hub       *hub
	server    *http.Server
}

// NewServer wires the HTTP API. repo may be nil when no database is configured.
func NewServer(ext Extractor, repo Repository, opts Options) *Server {
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	s := &Server{
		extractor: ext,
		repo:      repo,
		opts:      opts,
		hub:       newHub(),
	}
	return s
}

// Handler returns the router wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/extract", s.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/api/presentations", s.handleListPresentations).Methods(http.MethodGet)
	r.HandleFunc("/api/presentations/{id:[0-9]+}/slides", s.handleSlides).Methods(http.MethodGet)
	r.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.opts.Events != nil {
		go s.hub.run(ctx, s.opts.Events)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("SlideText API listening on http://%s", addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":   "ok",
		"database": s.repo != nil,
	}
	if s.opts.Processing != nil {
		status["processing"] = s.opts.Processing()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	format := report.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	// The original extension is kept so the extractor applies its format check.
	destPath := filepath.Join(s.opts.UploadDir, uuid.NewString()+filepath.Ext(header.Filename))
	dest, err := os.Create(destPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(destPath)

	_, err = io.Copy(dest, file)
	if cerr := dest.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slides, err := s.extractor.ExtractFromFile(destPath)
	if err != nil {
		log.Printf("Extraction of %s failed: %v", header.Filename, err)
		writeError(w, extractStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if err := report.Write(w, format, slides); err != nil {
		log.Printf("Error writing report: %v", err)
	}
}

func extractStatus(err error) int {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pptx.ErrInvalidPackage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extractor.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListPresentations(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	list, err := s.repo.ListPresentations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []database.Presentation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	records, err := s.repo.Slides(id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "presentation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slides := make([]extractor.SlideContent, len(records))
		for i := range records {
			slides[i] = records[i].Content()
		}
		w.Header().Set("Content-Type", f.ContentType())
		if err := report.Write(w, f, slides); err != nil {
			log.Printf("Error writing report: %v", err)
		}
		return
	}

	if records == nil {
		records = []database.SlideRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
