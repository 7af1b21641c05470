package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dexit/ACRUD/pkg/engine"
)

// readRecord parses --data. The value is inline JSON, @path to read a
// file, or - to read stdin.
func readRecord(data string, stdin io.Reader) (engine.Record, error) {
	var raw []byte

	switch {
	case data == "":
		return nil, fmt.Errorf("--data is required")
	case data == "-":
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = content
	case strings.HasPrefix(data, "@"):
		content, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", data[1:], err)
		}
		raw = content
	default:
		raw = []byte(data)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("invalid JSON record: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("record must be a JSON object")
	}

	return engine.RecordFromMap(fields)
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
