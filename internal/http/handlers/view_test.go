package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"endorsement/internal/batch"
)

func TestSnapshotViewEncoding(t *testing.T) {
	s := batch.Snapshot{ID: "b1", Tasks: []batch.Task{
		{Index: 0, State: batch.StateSucceeded, Src: "data:image/png;base64,AAAA"},
		{Index: 1, State: batch.StatePending},
	}}
	raw, err := json.Marshal(newSnapshotView(s, "en"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)
	for _, want := range []string{`"id":"b1"`, `"done":false`, `"has_failures":false`, `"message":""`, `"src":null`, `"src":"data:image/png;base64,AAAA"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in %s", want, got)
		}
	}
}

func TestSnapshotViewMessageOnlyWhenDone(t *testing.T) {
	settled := batch.Snapshot{ID: "b2", Tasks: []batch.Task{
		{Index: 0, State: batch.StateFailed},
		{Index: 1, State: batch.StateSucceeded, Src: "data:image/png;base64,AAAA"},
	}}
	if v := newSnapshotView(settled, "en"); v.Message != "" || !v.HasFailures {
		t.Fatalf("message must wait for done: %+v", v)
	}
	settled.Done = true
	if v := newSnapshotView(settled, "en"); v.Message != "Some images failed to generate. Please try again." {
		t.Fatalf("unexpected message %q", v.Message)
	}
}

func TestProgressIsMonotone(t *testing.T) {
	pending := batch.Snapshot{Tasks: []batch.Task{{State: batch.StatePending}, {State: batch.StatePending}}}
	one := batch.Snapshot{Tasks: []batch.Task{{State: batch.StateFailed}, {State: batch.StatePending}}}
	all := batch.Snapshot{Tasks: []batch.Task{{State: batch.StateFailed}, {State: batch.StateSucceeded}}}
	done := all
	done.Done = true

	steps := []batch.Snapshot{pending, one, all, done}
	for i := 1; i < len(steps); i++ {
		if progress(steps[i]) <= progress(steps[i-1]) {
			t.Fatalf("progress did not increase at step %d", i)
		}
	}
}

func TestParseFlag(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "1": true, "on": true, " YES ": true, "": false, "false": false, "0": false} {
		if got := parseFlag(in); got != want {
			t.Fatalf("parseFlag(%q) = %v, want %v", in, got, want)
		}
	}
}
