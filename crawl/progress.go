package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
)

// ProgressEmitter receives progress updates during a crawl. Implementations
// include CLIEmitter (terminal output), JSONEmitter (structured events), and
// NopEmitter (the default).
type ProgressEmitter interface {
	// EmitStage announces the start of a processing stage.
	EmitStage(stage string, message string)

	// EmitProgress announces per-page progress with optional metadata.
	EmitProgress(count int, metadata map[string]any)

	// EmitComplete announces successful completion with a summary.
	EmitComplete(summary map[string]any)

	// EmitError announces an error during processing.
	EmitError(stage string, err error)

	// EmitInfo emits a general informational message.
	EmitInfo(message string)
}

// NopEmitter discards all progress updates.
type NopEmitter struct{}

func (NopEmitter) EmitStage(string, string)         {}
func (NopEmitter) EmitProgress(int, map[string]any) {}
func (NopEmitter) EmitComplete(map[string]any)      {}
func (NopEmitter) EmitError(string, error)          {}
func (NopEmitter) EmitInfo(string)                  {}

// CLIEmitter pretty-prints progress to the terminal using pterm.
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter.
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

func (e *CLIEmitter) EmitStage(stage string, message string) {
	pterm.Printf("🔄 %s: %s\n", pterm.LightCyan(stage), message)
}

func (e *CLIEmitter) EmitProgress(count int, metadata map[string]any) {
	if url, ok := metadata["url"].(string); ok {
		pterm.Printf("✅ Page %s: %s\n", pterm.Green(fmt.Sprintf("%d", count)), url)
		return
	}
	pterm.Printf("✅ Processed %s pages\n", pterm.Green(fmt.Sprintf("%d", count)))
}

func (e *CLIEmitter) EmitComplete(summary map[string]any) {
	pterm.Success.Println("Crawl complete!")
	if e.verbosity >= 1 {
		for key, value := range summary {
			pterm.Printf("  %s: %v\n", key, value)
		}
	}
}

func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= 1 {
		pterm.Info.Println(message)
	}
}

// ProgressEvent is one structured JSON progress event.
type ProgressEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// JSONEmitter writes structured JSON events, one per line, for machine
// consumption.
type JSONEmitter struct {
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON progress emitter writing to stdout.
func NewJSONEmitter() *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(os.Stdout)}
}

func (e *JSONEmitter) emit(eventType string, data map[string]any) {
	e.encoder.Encode(ProgressEvent{Type: eventType, Timestamp: time.Now(), Data: data})
}

func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]any{"stage": stage, "message": message})
}

func (e *JSONEmitter) EmitProgress(count int, metadata map[string]any) {
	data := map[string]any{"count": count}
	for k, v := range metadata {
		data[k] = v
	}
	e.emit("progress", data)
}

func (e *JSONEmitter) EmitComplete(summary map[string]any) {
	e.emit("complete", summary)
}

func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]any{"stage": stage, "error": err.Error()})
}

func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]any{"message": message})
}
