// Package applog writes one JSON object per line through the standard logger.
package applog

import (
	"encoding/json"
	"log"
	"time"
)

// Log stamps data with ts and a level (error when status is "error", info
// otherwise, unless level is already set) and prints it as a JSON line.
func Log(loc *time.Location, data map[string]any) {
	if loc == nil {
		loc = time.UTC
	}
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}

// Warn logs a warning event for component.
func Warn(loc *time.Location, component, event string, err error) {
	entry := map[string]any{
		"level":     "warn",
		"component": component,
		"event":     event,
	}
	if err != nil {
		entry["error_message"] = err.Error()
	}
	Log(loc, entry)
}
