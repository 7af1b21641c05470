package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dexit/ACRUD/pkg/engine"
)

func TestReadRecord(t *testing.T) {
	t.Run("inline JSON", func(t *testing.T) {
		rec, err := readRecord(`{"name":"Ana","age":30,"admin":true,"team_id":null}`, nil)
		if err != nil {
			t.Fatalf("readRecord() error = %v", err)
		}
		if !rec.Get("name").Equal(engine.String("Ana")) {
			t.Errorf("name = %v", rec.Get("name"))
		}
		if !rec.Get("age").Equal(engine.Integer(30)) {
			t.Errorf("age = %v, want integer 30", rec.Get("age"))
		}
		if !rec.Get("admin").Equal(engine.Boolean(true)) {
			t.Errorf("admin = %v", rec.Get("admin"))
		}
		if !rec.Has("team_id") || !rec.Get("team_id").IsNull() {
			t.Errorf("team_id should be present and null")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "record.json")
		if err := os.WriteFile(path, []byte(`{"id":"7"}`), 0644); err != nil {
			t.Fatal(err)
		}

		rec, err := readRecord("@"+path, nil)
		if err != nil {
			t.Fatalf("readRecord() error = %v", err)
		}
		if !rec.Get("id").Equal(engine.String("7")) {
			t.Errorf("id = %v", rec.Get("id"))
		}
	})

	t.Run("stdin", func(t *testing.T) {
		rec, err := readRecord("-", strings.NewReader(`{"title":"Ops"}`))
		if err != nil {
			t.Fatalf("readRecord() error = %v", err)
		}
		if !rec.Get("title").Equal(engine.String("Ops")) {
			t.Errorf("title = %v", rec.Get("title"))
		}
	})
}

func TestReadRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing", "", "--data is required"},
		{"bad JSON", "{name:", "invalid JSON"},
		{"null", "null", "JSON object"},
		{"nested", `{"tags":["a"]}`, "unsupported"},
		{"missing file", "@/nonexistent/record.json", "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readRecord(tt.data, strings.NewReader(""))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
