package edition

import "testing"

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("  Preview_Ready "); !ok || status != StatusPreviewReady {
		t.Fatalf("ParseStatus normalization failed: %q %v", status, ok)
	}
	if _, ok := ParseStatus("rendering"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestCanTransitionEdges(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusAwaiting, StatusDownloading},
		{StatusAwaiting, StatusLyrics},
		{StatusDownloading, StatusLyrics},
		{StatusLyrics, StatusTranscribing},
		{StatusTranscribing, StatusAligning},
		{StatusAligning, StatusCutting},
		{StatusCutting, StatusTranslating},
		{StatusCutting, StatusPreviewRendering},
		{StatusTranslating, StatusPreviewRendering},
		{StatusPreviewRendering, StatusPreviewReady},
		{StatusPreviewReady, StatusRenderingAll},
		{StatusPreviewReady, StatusRevisionRequested},
		{StatusRevisionRequested, StatusAligning},
		{StatusRenderingAll, StatusDone},
		{StatusFailed, StatusRenderingAll},
		{StatusFailed, StatusPreviewRendering},
	}
	for _, edge := range allowed {
		if !CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be allowed", edge.from, edge.to)
		}
	}

	forbidden := []struct{ from, to Status }{
		{StatusAwaiting, StatusRenderingAll},
		{StatusAligning, StatusPreviewReady},
		{StatusCutting, StatusRenderingAll},
		{StatusPreviewRendering, StatusRenderingAll},
		{StatusRevisionRequested, StatusRenderingAll},
		{StatusDone, StatusRenderingAll},
		{StatusDone, StatusFailed},
		{StatusFailed, StatusDone},
	}
	for _, edge := range forbidden {
		if CanTransition(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be forbidden", edge.from, edge.to)
		}
	}
}

func TestEveryStatusMayFailExceptDone(t *testing.T) {
	for _, status := range AllStatuses() {
		got := CanTransition(status, StatusFailed)
		want := status != StatusDone
		if got != want {
			t.Errorf("CanTransition(%s, failed) = %v, want %v", status, got, want)
		}
	}
}

func TestSegmentsEditable(t *testing.T) {
	editable := map[Status]bool{
		StatusAligning:          true,
		StatusRevisionRequested: true,
	}
	for _, status := range AllStatuses() {
		if SegmentsEditable(status) != editable[status] {
			t.Errorf("SegmentsEditable(%s) = %v", status, SegmentsEditable(status))
		}
	}
}

func TestIsWatched(t *testing.T) {
	watched := map[Status]bool{
		StatusTranscribing:     true,
		StatusTranslating:      true,
		StatusPreviewRendering: true,
		StatusRenderingAll:     true,
	}
	for _, status := range AllStatuses() {
		if IsWatched(status) != watched[status] {
			t.Errorf("IsWatched(%s) = %v", status, IsWatched(status))
		}
	}
}

func TestSetWindow(t *testing.T) {
	ed := &Edition{}
	ed.SetWindow(10, 70)
	if !ed.HasWindow() {
		t.Fatal("expected window to be set")
	}
	if *ed.WindowDurationSec != 60 {
		t.Fatalf("unexpected duration: %v", *ed.WindowDurationSec)
	}
}
