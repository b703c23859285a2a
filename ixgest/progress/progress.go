// Package progress reports ingestion progress to a terminal or as JSON
// events.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Emitter receives progress from the read step and the archive ingestor.
//
// Implementations include:
// - CLIEmitter: pretty-printed terminal output using pterm
// - JSONEmitter: one JSON event per line for machine consumers
// - Recorder: keeps events in memory (tests, watch summaries)
type Emitter interface {
	// EmitStage announces the start of a processing stage
	EmitStage(stage string, message string)

	// EmitProgress announces progress with a count and optional metadata
	EmitProgress(count int, metadata map[string]interface{})

	// EmitStructures announces the structures decoded from one file or
	// archive member
	EmitStructures(count int, member string, formatID string)

	// EmitComplete announces successful completion with summary
	EmitComplete(summary map[string]interface{})

	// EmitError announces an error during processing
	EmitError(stage string, err error)

	// EmitInfo emits general informational message
	EmitInfo(message string)
}

// Event is one structured progress event
type Event struct {
	Type      string                 `json:"type"`      // "stage", "progress", "structures", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"` // When this event occurred
	Data      map[string]interface{} `json:"data"`      // Event-specific data
}

// CLIEmitter outputs pretty-printed progress to terminal using pterm
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter for terminal output
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

// EmitStage prints a stage announcement to terminal
func (e *CLIEmitter) EmitStage(stage string, message string) {
	pterm.Printf("🔄 %s: %s\n", pterm.LightCyan(stage), message)
}

// EmitProgress prints a progress count
func (e *CLIEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	if itemType, ok := metadata["type"].(string); ok {
		pterm.Printf("✅ Processed %s %s\n", pterm.Green(fmt.Sprintf("%d", count)), itemType)
	} else {
		pterm.Printf("✅ Processed %s items\n", pterm.Green(fmt.Sprintf("%d", count)))
	}
}

// EmitStructures prints the structures read from one file
func (e *CLIEmitter) EmitStructures(count int, member string, formatID string) {
	noun := "structures"
	if count == 1 {
		noun = "structure"
	}
	pterm.Printf("✅ %s: %s %s (%s)\n", member, pterm.Green(fmt.Sprintf("%d", count)), noun, formatID)
}

// EmitComplete prints completion summary
func (e *CLIEmitter) EmitComplete(summary map[string]interface{}) {
	pterm.Success.Println("Reading complete!")
	if e.verbosity >= 1 {
		for key, value := range summary {
			pterm.Printf("  %s: %v\n", key, value)
		}
	}
}

// EmitError prints an error
func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

// EmitInfo prints informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= 1 {
		pterm.Info.Println(message)
	}
}

// JSONEmitter writes one JSON event per line
type JSONEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON progress emitter writing to stdout
func NewJSONEmitter() *JSONEmitter {
	return NewJSONEmitterTo(os.Stdout)
}

// NewJSONEmitterTo creates a JSON progress emitter writing to w
func NewJSONEmitterTo(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w)}
}

func (e *JSONEmitter) emit(kind string, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.encoder.Encode(Event{Type: kind, Timestamp: time.Now(), Data: data})
}

// EmitStage emits a stage event as JSON
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitProgress emits a progress event as JSON, metadata merged into data
func (e *JSONEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	data := map[string]interface{}{
		"count": count,
	}
	for k, v := range metadata {
		data[k] = v
	}
	e.emit("progress", data)
}

// EmitStructures emits a structures event as JSON
func (e *JSONEmitter) EmitStructures(count int, member string, formatID string) {
	e.emit("structures", map[string]interface{}{
		"count":  count,
		"member": member,
		"format": formatID,
	})
}

// EmitComplete emits a completion event as JSON
func (e *JSONEmitter) EmitComplete(summary map[string]interface{}) {
	e.emit("complete", summary)
}

// EmitError emits an error event as JSON
func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// EmitInfo emits an info event as JSON
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{
		"message": message,
	})
}

// Nop discards all progress.
type Nop struct{}

func (Nop) EmitStage(string, string) {}
func (Nop) EmitProgress(int, map[string]interface{}) {}
func (Nop) EmitStructures(int, string, string) {}
func (Nop) EmitComplete(map[string]interface{}) {}
func (Nop) EmitError(string, error) {}
func (Nop) EmitInfo(string) {}

// OrNop returns e, or Nop when e is nil.
func OrNop(e Emitter) Emitter {
	if e == nil {
		return Nop{}
	}
	return e
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(kind string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Type: kind, Timestamp: time.Now(), Data: data})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) EmitStage(stage string, message string) {
	r.add("stage", map[string]interface{}{"stage": stage, "message": message})
}

func (r *Recorder) EmitProgress(count int, metadata map[string]interface{}) {
	data := map[string]interface{}{"count": count}
	for k, v := range metadata {
		data[k] = v
	}
	r.add("progress", data)
}

func (r *Recorder) EmitStructures(count int, member string, formatID string) {
	r.add("structures", map[string]interface{}{"count": count, "member": member, "format": formatID})
}

func (r *Recorder) EmitComplete(summary map[string]interface{}) {
	r.add("complete", summary)
}

func (r *Recorder) EmitError(stage string, err error) {
	r.add("error", map[string]interface{}{"stage": stage, "error": err.Error()})
}

func (r *Recorder) EmitInfo(message string) {
	r.add("info", map[string]interface{}{"message": message})
}
