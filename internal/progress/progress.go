package progress

import "time"

// Stage identifies which pipeline stage is active.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageScript   Stage = "script"
	StageTTS      Stage = "tts"
	StageAssembly Stage = "assembly"
	StageComplete Stage = "complete"
)

// percents maps each stage to the fraction of the pipeline completed when it
// begins. Script generation dominates wall-clock time.
var percents = map[Stage]float64{
	StageExtract:  0.0,
	StageScript:   0.1,
	StageTTS:      0.55,
	StageAssembly: 0.9,
	StageComplete: 1.0,
}

// Percent returns the nominal completion fraction for a stage.
func Percent(s Stage) float64 {
	return percents[s]
}

// Event carries progress information from the pipeline to the renderer.
type Event struct {
	Stage   Stage
	Message string
	Percent float64 // 0.0 to 1.0
	Elapsed time.Duration
	Error   error
	// OutputFile, Duration, and SizeMB are set on StageComplete.
	OutputFile string
	Duration   string
	SizeMB     float64
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// NewEvent creates an Event with common fields populated.
func NewEvent(stage Stage, msg string, start time.Time) Event {
	return Event{
		Stage:   stage,
		Message: msg,
		Percent: Percent(stage),
		Elapsed: time.Since(start),
	}
}
