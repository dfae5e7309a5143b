package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inkwave/pdfcast/internal/ingest"
	"github.com/inkwave/pdfcast/internal/observability"
	"github.com/inkwave/pdfcast/internal/pipeline"
	"github.com/inkwave/pdfcast/internal/progress"
)

const (
	// Progress writes to DynamoDB are throttled to this interval, except
	// when the job moves to a new stage.
	progressWriteInterval = 2 * time.Second

	shutdownFailTimeout = 5 * time.Second
)

// stageStatus maps pipeline progress stages to stored job statuses.
var stageStatus = map[progress.Stage]JobStatus{
	progress.StageExtract:  JobStatusExtracting,
	progress.StageScript:   JobStatusScripting,
	progress.StageTTS:      JobStatusSynthesizing,
	progress.StageAssembly: JobStatusAssembling,
}

// TaskManager runs podcast generation jobs in background goroutines and
// tracks them so they can be cancelled individually or at shutdown.
type TaskManager struct {
	log      *slog.Logger
	store    *Store
	audio    *AudioStore
	pipe     pipeline.Pipeline
	maxTasks int

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewTaskManager(log *slog.Logger, store *Store, audio *AudioStore, pipe pipeline.Pipeline, maxTasks int) *TaskManager {
	if maxTasks <= 0 {
		maxTasks = 4
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &TaskManager{
		log:        log,
		store:      store,
		audio:      audio,
		pipe:       pipe,
		maxTasks:   maxTasks,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Running returns the number of jobs currently in flight.
func (tm *TaskManager) Running() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.cancels)
}

// StartTask launches a generation job for the given content. It returns an
// error when the manager is at capacity. The job's lifetime is tied to the
// manager, not to the HTTP request that started it.
func (tm *TaskManager) StartTask(ctx context.Context, id string, content *ingest.Content, opts pipeline.Options) error {
	tm.mu.Lock()
	if len(tm.cancels) >= tm.maxTasks {
		tm.mu.Unlock()
		return fmt.Errorf("server is at capacity (%d generations in progress), try again later", tm.maxTasks)
	}
	taskCtx, cancel := context.WithCancel(observability.DetachTraceContextFrom(ctx, tm.baseCtx))
	tm.cancels[id] = cancel
	tm.mu.Unlock()

	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		defer func() {
			tm.mu.Lock()
			delete(tm.cancels, id)
			tm.mu.Unlock()
			cancel()
		}()
		tm.runJob(taskCtx, id, content, opts)
	}()
	return nil
}

// CancelTask cancels a running job. It returns false when no job with the
// given ID is in flight.
func (tm *TaskManager) CancelTask(id string) bool {
	tm.mu.Lock()
	cancel, ok := tm.cancels[id]
	tm.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (tm *TaskManager) runJob(ctx context.Context, id string, content *ingest.Content, opts pipeline.Options) {
	log := tm.log.With("podcast_id", id)
	log.InfoContext(ctx, "starting generation job",
		"title", content.Title, "words", content.WordCount)

	p := tm.pipe
	p.Log = log
	p.Progress = tm.progressWriter(ctx, id)

	if opts.Title == "" {
		opts.Title = content.Title
	}
	if opts.Output == "" {
		workDir, err := os.MkdirTemp("", "pdfcast-job-*")
		if err != nil {
			tm.failJob(id, "storage", fmt.Sprintf("create work dir: %v", err))
			return
		}
		defer os.RemoveAll(workDir)
		opts.WorkDir = workDir
		opts.Output = filepath.Join(workDir, "podcast.mp3")
	}

	pod, err := p.Run(ctx, content.Text, opts)
	if err != nil {
		if ctx.Err() != nil {
			tm.failJob(id, "cancelled", "generation cancelled")
			return
		}
		category := "generation"
		var perr *pipeline.PipelineError
		if errors.As(err, &perr) {
			category = string(perr.Category)
		}
		log.ErrorContext(ctx, "generation job failed", "category", category, "error", err)
		tm.failJob(id, category, err.Error())
		return
	}

	if err := tm.store.UpdateProgress(ctx, id, JobStatusUploading, 0.95, "Uploading audio"); err != nil {
		log.WarnContext(ctx, "progress write failed", "error", err)
	}

	key, url, err := tm.audio.Store(ctx, id, pod.AudioPath)
	if err != nil {
		log.ErrorContext(ctx, "audio upload failed", "error", err)
		tm.failJob(id, "storage", err.Error())
		return
	}

	duration := formatDuration(pod.AudioPath, tm.audio, id)
	sizeMB := fileSizeMB(tm.audio, id, pod.AudioPath)

	if err := tm.store.CompleteJob(ctx, id, opts.Title, key, url, duration, pod.ScriptText, sizeMB); err != nil {
		log.ErrorContext(ctx, "could not record completion", "error", err)
		return
	}
	log.InfoContext(ctx, "generation job complete", "audio_key", key, "duration", duration)
}

// progressWriter returns a pipeline progress callback that mirrors stage
// changes into DynamoDB, throttled so rapid updates within a stage do not
// hammer the table.
func (tm *TaskManager) progressWriter(ctx context.Context, id string) func(stage, message string) {
	var mu sync.Mutex
	var lastWrite time.Time
	var lastStage string

	return func(stage, message string) {
		mu.Lock()
		stageChanged := stage != lastStage
		if !stageChanged && time.Since(lastWrite) < progressWriteInterval {
			mu.Unlock()
			return
		}
		lastStage = stage
		lastWrite = time.Now()
		mu.Unlock()

		st := progress.Stage(stage)
		status, ok := stageStatus[st]
		if !ok {
			return
		}
		if err := tm.store.UpdateProgress(ctx, id, status, progress.Percent(st), message); err != nil {
			tm.log.WarnContext(ctx, "progress write failed", "podcast_id", id, "error", err)
		}
	}
}

// failJob records a failure using a fresh context so the write succeeds
// even when the job's own context is already cancelled.
func (tm *TaskManager) failJob(id, category, msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFailTimeout)
	defer cancel()
	if err := tm.store.FailJob(ctx, id, category, msg); err != nil {
		tm.log.Warn("could not record job failure", "podcast_id", id, "error", err)
	}
}

// Shutdown cancels all running jobs and waits for them to wind down.
func (tm *TaskManager) Shutdown(ctx context.Context) {
	tm.baseCancel()

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		tm.log.Warn("shutdown timed out waiting for running jobs")
	}
}

func formatDuration(audioPath string, audio *AudioStore, id string) string {
	path := audioPath
	if audio.Local() {
		path = audio.LocalPath(id)
	}
	return pipeline.ProbeDuration(path)
}

func fileSizeMB(audio *AudioStore, id, audioPath string) float64 {
	path := audioPath
	if audio.Local() {
		path = audio.LocalPath(id)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}
