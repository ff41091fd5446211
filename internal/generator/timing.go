package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TimingEnv names the environment variable that turns on JSONL timing.
const TimingEnv = "ERRGEN_TIMING_JSONL"

type timingEvent struct {
	RunID      string  `json:"run_id"`
	Phase      string  `json:"phase"`
	Kind       string  `json:"kind"`
	File       string  `json:"file,omitempty"`
	Status     string  `json:"status,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

// timingRecorder appends one JSON object per event. A nil or disabled
// recorder swallows events, and stages are also kept for the verbose summary.
type timingRecorder struct {
	runID   string
	enabled bool
	start   time.Time
	stages  []timingEvent
	file    *os.File
	enc     *json.Encoder
	err     error
}

func newTimingRecorder(runID string, start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{runID: runID, start: start}
	if path == "" {
		return tr
	}
	f, err := os.Create(path)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.enabled = true
	tr.file = f
	tr.enc = json.NewEncoder(f)
	return tr
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
}

func (tr *timingRecorder) record(phase, kind, file, status string, start time.Time, duration time.Duration) {
	if tr == nil {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(duration)
	event := timingEvent{
		RunID:      tr.runID,
		Phase:      phase,
		Kind:       kind,
		File:       file,
		Status:     status,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	if kind == "stage" {
		tr.stages = append(tr.stages, event)
	}
	if tr.enabled {
		_ = tr.enc.Encode(event)
	}
}

// Stage records a pipeline stage that started at start and ends now.
func (tr *timingRecorder) Stage(phase string, start time.Time, status string) {
	tr.record(phase, "stage", "", status, start, time.Since(start))
}

// File records one per-file step.
func (tr *timingRecorder) File(phase, file, status string, start time.Time) {
	tr.record(phase, "file", file, status, start, time.Since(start))
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

// resolveTimingPath picks the JSONL target: the environment first, then the
// generator field, then the config.
func (g *Generator) resolveTimingPath() string {
	if envPath := os.Getenv(TimingEnv); envPath != "" {
		return envPath
	}
	if g.TimingPath != "" {
		return g.TimingPath
	}
	return g.Config.Timing
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
