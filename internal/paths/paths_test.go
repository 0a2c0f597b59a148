package paths

import (
	"path/filepath"
	"testing"
)

func TestDataDir_Paths(t *testing.T) {
	d := DataDir{Root: "/home/u/.carp"}

	tests := []struct {
		name string
		got  string
		file string
	}{
		{"pid", d.PID(), PIDFile},
		{"config", d.Config(), ConfigFile},
		{"log", d.Log(), LogFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := filepath.Join("/home/u/.carp", tt.file)
			if tt.got != want {
				t.Fatalf("got %q, want %q", tt.got, want)
			}
		})
	}
}
