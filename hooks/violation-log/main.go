// Package main provides a violation hook that appends each event as a JSON
// line to a log file. The file is PROCTOR_VIOLATION_LOG, or violations.jsonl
// in the hook directory.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Response is written to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	path := os.Getenv("PROCTOR_VIOLATION_LOG")
	if path == "" {
		path = "violations.jsonl"
	}
	writeResponse(appendEvent(os.Stdin, path))
}

// appendEvent validates the event on r and appends it compactly to path.
func appendEvent(r io.Reader, path string) error {
	var ev json.RawMessage
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
