package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestSplitLanguages(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "empty", input: nil, want: []string{}},
		{name: "repeated flags", input: []string{"en", "fr"}, want: []string{"en", "fr"}},
		{name: "comma separated", input: []string{"en,fr , de"}, want: []string{"en", "fr", "de"}},
		{name: "blanks dropped", input: []string{" , ,en,"}, want: []string{"en"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLanguages(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("splitLanguages(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestYesNo(t *testing.T) {
	if got := yesNo(true); got != "yes" {
		t.Fatalf("yesNo(true) = %q", got)
	}
	if got := yesNo(false); got != "no" {
		t.Fatalf("yesNo(false) = %q", got)
	}
}

func TestColorStage(t *testing.T) {
	if got := colorStage("ready", false); got != "ready" {
		t.Fatalf("uncolored stage = %q", got)
	}
	if got := colorStage("ready", true); !strings.Contains(got, ansiGreen) {
		t.Fatalf("ready stage missing green escape: %q", got)
	}
	if got := colorStage("failed", true); !strings.Contains(got, ansiRed) {
		t.Fatalf("failed stage missing red escape: %q", got)
	}
	if got := colorStage("transcribing", true); !strings.Contains(got, ansiYellow) {
		t.Fatalf("active stage missing yellow escape: %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers must never be colorized")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Stage"},
		[][]string{{"job-1", "ready"}, {"job-2", "failed"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	requireContains(t, out, "ID")
	requireContains(t, out, "job-1")
	requireContains(t, out, "failed")
}
