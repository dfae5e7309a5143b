package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkwave/pdfcast/internal/config"
	"github.com/inkwave/pdfcast/internal/ingest"
	"github.com/inkwave/pdfcast/internal/pipeline"
)

const maxUploadBytes = 25 * 1024 * 1024

// Server exposes the podcast generation HTTP API.
type Server struct {
	log   *slog.Logger
	cfg   *config.Config
	store *Store
	audio *AudioStore
	tasks *TaskManager
}

func New(log *slog.Logger, cfg *config.Config, store *Store, audio *AudioStore, tasks *TaskManager) *Server {
	return &Server{log: log, cfg: cfg, store: store, audio: audio, tasks: tasks}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /podcasts", s.handleCreate)
	mux.HandleFunc("GET /podcasts", s.handleList)
	mux.HandleFunc("GET /podcasts/{id}", s.handleGet)
	mux.HandleFunc("GET /podcasts/{id}/audio", s.handleAudio)
	mux.HandleFunc("POST /podcasts/{id}/cancel", s.handleCancel)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": s.tasks.Running(),
	})
}

// createRequest is the JSON body for non-upload submissions.
type createRequest struct {
	URL           string `json:"url,omitempty"`
	Text          string `json:"text,omitempty"`
	Title         string `json:"title,omitempty"`
	TargetMinutes int    `json:"targetMinutes,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var (
		content       *ingest.Content
		title         string
		targetMinutes int
		err           error
	)

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"):
		content, title, targetMinutes, err = s.parseUpload(r)
	case strings.HasPrefix(ct, "application/json"), ct == "":
		content, title, targetMinutes, err = s.parseJSON(r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "use multipart/form-data or application/json")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := NewPodcastID()
	if err != nil {
		s.log.ErrorContext(r.Context(), "could not generate podcast id", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	owner := r.Header.Get("X-Owner")
	if owner == "" {
		owner = "anonymous"
	}

	if err := s.store.CreateJob(r.Context(), id, owner, content.Source,
		s.cfg.Generation.Model, s.cfg.TTS.Provider); err != nil {
		s.log.ErrorContext(r.Context(), "could not create job record", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	opts := pipeline.Options{
		Title:          title,
		TargetMinutes:  targetMinutes,
		WordsPerMinute: s.cfg.Generation.WordsPerMinute,
	}
	if opts.TargetMinutes <= 0 {
		opts.TargetMinutes = s.cfg.Generation.TargetMinutes
	}

	if err := s.tasks.StartTask(r.Context(), id, content, opts); err != nil {
		s.failCreate(r, id, err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":     id,
		"status": string(JobStatusSubmitted),
		"title":  title,
	})
}

func (s *Server) parseUpload(r *http.Request) (*ingest.Content, string, int, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", 0, fmt.Errorf("parse upload: %w", err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", 0, fmt.Errorf("missing file field")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", 0, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, "", 0, fmt.Errorf("file exceeds %d MB limit", maxUploadBytes/(1024*1024))
	}

	content, err := ingest.FromPDFBytes(data, hdr.Filename)
	if err != nil {
		return nil, "", 0, err
	}

	title := r.FormValue("title")
	if title == "" {
		title = content.Title
	}
	target, _ := strconv.Atoi(r.FormValue("targetMinutes"))
	return content, title, target, nil
}

func (s *Server) parseJSON(r *http.Request) (*ingest.Content, string, int, error) {
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return nil, "", 0, fmt.Errorf("parse request body: %w", err)
	}

	var content *ingest.Content
	switch {
	case req.URL != "":
		ing := &ingest.URLIngester{}
		c, err := ing.Ingest(r.Context(), req.URL)
		if err != nil {
			return nil, "", 0, fmt.Errorf("fetch url: %w", err)
		}
		content = c
	case req.Text != "":
		content = ingest.FromText(req.Text, req.Title)
	default:
		return nil, "", 0, fmt.Errorf("provide either url or text")
	}

	title := req.Title
	if title == "" {
		title = content.Title
	}
	return content, title, req.TargetMinutes, nil
}

// failCreate records the failure of a job that never started.
func (s *Server) failCreate(r *http.Request, id string, cause error) {
	if err := s.store.FailJob(r.Context(), id, "capacity", cause.Error()); err != nil {
		s.log.WarnContext(r.Context(), "could not record rejected job", "podcast_id", id, "error", err)
	}
}

type podcastResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	Status          string  `json:"status"`
	ProgressPercent float64 `json:"progressPercent"`
	StageMessage    string  `json:"stageMessage,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	ErrorCategory   string  `json:"errorCategory,omitempty"`
	AudioURL        string  `json:"audioUrl,omitempty"`
	Duration        string  `json:"duration,omitempty"`
	FileSizeMB      float64 `json:"fileSizeMB,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func toResponse(item *PodcastItem) podcastResponse {
	return podcastResponse{
		ID:              item.PodcastID,
		Title:           item.Title,
		Status:          item.Status,
		ProgressPercent: item.ProgressPercent,
		StageMessage:    item.StageMessage,
		ErrorMessage:    item.ErrorMessage,
		ErrorCategory:   item.ErrorCategory,
		AudioURL:        item.AudioURL,
		Duration:        item.Duration,
		FileSizeMB:      item.FileSizeMB,
		CreatedAt:       item.CreatedAt,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cursor := r.URL.Query().Get("cursor")

	items, next, err := s.store.ListPodcasts(r.Context(), limit, cursor)
	if err != nil {
		s.log.ErrorContext(r.Context(), "list podcasts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]podcastResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"podcasts":   resp,
		"nextCursor": next,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetPodcast(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.ErrorContext(r.Context(), "get podcast failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "podcast not found")
		return
	}

	resp := toResponse(item)
	if r.URL.Query().Get("includeScript") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{
			"podcast": resp,
			"script":  item.ScriptText,
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := s.store.GetPodcast(r.Context(), id)
	if err != nil {
		s.log.ErrorContext(r.Context(), "get podcast failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if item == nil || item.Status != string(JobStatusComplete) {
		writeError(w, http.StatusNotFound, "audio not available")
		return
	}

	if !s.audio.Local() {
		http.Redirect(w, r, item.AudioURL, http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, s.audio.LocalPath(id))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.tasks.CancelTask(id) {
		writeError(w, http.StatusNotFound, "no running job with that id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": "cancelling",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
