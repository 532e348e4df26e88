package model

import "testing"

func TestAllStagesOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		"reachability", "timing", "redirects", "tls", "dns", "ping",
		"content_type", "title", "error_scan", "robots", "sitemap",
		"meta_refresh", "platform", "store", "score", "snapshot",
	}

	stages := AllStages()
	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if s.String() != want[i] {
			t.Errorf("stage %d = %q, want %q", i, s.String(), want[i])
		}
		if s.Label() == "" || s.Label() == "Unknown stage" {
			t.Errorf("stage %q has no label", s)
		}
	}
}

func TestStageUnknown(t *testing.T) {
	t.Parallel()

	if got := Stage(-1).String(); got != "unknown" {
		t.Errorf("got %q, want unknown", got)
	}
	if got := Stage(99).Label(); got != "Unknown stage" {
		t.Errorf("got %q, want Unknown stage", got)
	}
}
