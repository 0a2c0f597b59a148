package presence

import (
	"strings"
	"testing"
	"time"

	"github.com/timbits/carp/internal/config"
)

func display(cells int) config.DisplayConfig {
	return config.DisplayConfig{MaxLineCells: cells}
}

func timestampAt(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestResolveExpandsTemplates(t *testing.T) {
	tgt := &config.Target{
		Process: "code",
		Details: "Editing in {process}",
		State:   "busy with {process}",
	}
	res := Resolve(tgt, display(35), "code")
	if res.Details != "Editing in code" {
		t.Errorf("details = %q", res.Details)
	}
	if res.State != "busy with code" {
		t.Errorf("state = %q", res.State)
	}
	if res.Process != "code" {
		t.Errorf("process = %q", res.Process)
	}
}

func TestResolveGlobUsesMatchedName(t *testing.T) {
	tgt := &config.Target{Process: "game-*", Details: "Playing {process}", Match: "glob"}
	res := Resolve(tgt, display(35), "game-doom")
	if res.Details != "Playing game-doom" {
		t.Errorf("details = %q", res.Details)
	}
}

func TestResolveOverflowBecomesState(t *testing.T) {
	tgt := &config.Target{Process: "app", Details: "This is a very long status message"}
	res := Resolve(tgt, display(20), "app")
	if res.Details != "This is a very long" {
		t.Errorf("details = %q", res.Details)
	}
	if res.State != "status message" {
		t.Errorf("state = %q", res.State)
	}
}

func TestResolveStateTemplateSuppressesOverflow(t *testing.T) {
	tgt := &config.Target{
		Process: "app",
		Details: "This is a very long status message",
		State:   "explicit state",
	}
	res := Resolve(tgt, display(20), "app")
	if res.State != "explicit state" {
		t.Errorf("state = %q, overflow should not win over an explicit template", res.State)
	}
}

func TestResolveTruncatesFields(t *testing.T) {
	long := strings.Repeat("x", 300)
	tgt := &config.Target{Process: "app", Details: long}
	res := Resolve(tgt, display(1000), "app")
	if len(res.Details) > 128 {
		t.Errorf("details is %d bytes, limit is 128", len(res.Details))
	}
}

func TestResolveCopiesAssets(t *testing.T) {
	tgt := &config.Target{
		Process:    "code",
		Details:    "Coding",
		LargeImage: "vscode",
		SmallImage: "badge",
	}
	res := Resolve(tgt, config.DisplayConfig{MaxLineCells: 35, LargeText: "hover"}, "code")
	if res.LargeImage != "vscode" || res.SmallImage != "badge" || res.LargeText != "hover" {
		t.Errorf("assets lost: %+v", res)
	}
}

func TestEqual(t *testing.T) {
	a := &Resolved{Process: "code", Details: "Coding"}
	b := &Resolved{Process: "code", Details: "Coding"}
	c := &Resolved{Process: "code", Details: "Other"}

	if !a.Equal(b) {
		t.Error("identical presences should be equal")
	}
	if a.Equal(c) {
		t.Error("different details should not be equal")
	}
	if a.Equal(nil) {
		t.Error("nil should not equal a value")
	}
	var nilRes *Resolved
	if !nilRes.Equal(nil) {
		t.Error("nil should equal nil")
	}
}

func TestActivityShape(t *testing.T) {
	res := &Resolved{Process: "code", Details: "Coding", LargeImage: "vscode"}
	act := res.activity(timestampAt(1700000000))
	if act.Details != "Coding" {
		t.Errorf("details = %q", act.Details)
	}
	if act.Timestamps == nil || act.Timestamps.Start != 1700000000 {
		t.Errorf("timestamps = %+v", act.Timestamps)
	}
	if act.Assets == nil || act.Assets.LargeImage != "vscode" {
		t.Errorf("assets = %+v", act.Assets)
	}

	// No assets configured means no assets object on the wire.
	bare := &Resolved{Process: "code", Details: "Coding"}
	if got := bare.activity(timestampAt(0)); got.Assets != nil {
		t.Errorf("assets should be omitted, got %+v", got.Assets)
	}
}
