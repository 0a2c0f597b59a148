package update

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// withManifestURL points the package at a test server for one test.
func withManifestURL(t *testing.T, url string) {
	t.Helper()
	old := manifestURL
	manifestURL = url
	t.Cleanup(func() { manifestURL = old })
}

// ///////////////////////////////////////////////
// Semver Tests
// ///////////////////////////////////////////////

func TestParseSemver(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"1.2.3", []int{1, 2, 3}},
		{"v0.1.0", []int{0, 1, 0}},
		{"0.0.0-dev", []int{0, 0, 0}},
		{"1.0.0-beta+build123", []int{1, 0, 0}},
		{"10.20.30", []int{10, 20, 30}},

		// Invalid inputs return nil.
		{"", nil},
		{"1.2", nil},
		{"not.a.version", nil},
		{"1.2.x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseSemver(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSemver(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSemverLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.2.3", "1.2.3", false},
		{"0.9.9", "1.0.0", true},
		{"2.0.0", "1.9.9", false},
		{"1.0.0", "1.0.1", true},
		{"v0.1.0", "v0.2.0", true},
		{"0.1.0", "v0.2.0", true},
		{"0.1.0-dev", "0.1.0", true},
		{"0.1.0", "0.1.0-dev", false},
		// No ordering between different pre-releases of the same version.
		{"1.0.0-alpha", "1.0.0-beta", false},
		// Non-semver strings are never ordered.
		{"invalid", "1.0.0", false},
		{"1.0.0", "", false},
	}

	for _, tt := range tests {
		if got := semverLess(tt.a, tt.b); got != tt.want {
			t.Errorf("semverLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// Manifest Tests
// ///////////////////////////////////////////////

func TestFetchLatest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{".": "2.0.0", "linux-amd64": "2.0.0"}`))
	}))
	defer server.Close()
	withManifestURL(t, server.URL)

	version, err := fetchLatest()
	if err != nil {
		t.Fatalf("fetchLatest: %v", err)
	}
	if version != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", version)
	}
}

func TestFetchLatestNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	withManifestURL(t, server.URL)

	if _, err := fetchLatest(); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFetchLatestInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()
	withManifestURL(t, server.URL)

	if _, err := fetchLatest(); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestCheckDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{".": "1.2.0"}`))
	}))
	defer server.Close()
	withManifestURL(t, server.URL)

	// Check only logs; it must swallow all failures.
	Check("1.0.0")
	Check("1.2.0")
	Check("garbage")

	withManifestURL(t, "")
	Check("1.0.0")
}
