package notify

import (
	"io"
	"testing"

	"github.com/filedrop/filedrop/internal/logging"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		succeeded int
		total     int
		want      Variant
	}{
		{0, 3, AllFailed},
		{1, 3, PartiallySucceeded},
		{2, 3, PartiallySucceeded},
		{3, 3, AllSucceeded},
		{1, 1, AllSucceeded},
		{0, 1, AllFailed},
		{0, 0, AllSucceeded}, // empty batch: nothing to do, nothing failed
		{2, 5, PartiallySucceeded},
	}

	for _, tt := range tests {
		s := Summarize(tt.succeeded, tt.total)
		if s.Variant != tt.want {
			t.Errorf("Summarize(%d, %d).Variant = %v, want %v", tt.succeeded, tt.total, s.Variant, tt.want)
		}
		if s.Succeeded != tt.succeeded || s.Total != tt.total {
			t.Errorf("Summarize(%d, %d) lost its counts: %+v", tt.succeeded, tt.total, s)
		}
	}
}

func TestSummaryTitleBody(t *testing.T) {
	failed := Summarize(0, 4)
	if failed.Title() != "Export failed" {
		t.Errorf("AllFailed title = %q", failed.Title())
	}

	partial := Summarize(2, 5)
	if partial.Title() != "Export incomplete" {
		t.Errorf("Partial title = %q", partial.Title())
	}
	if partial.Body() != "Exported 2 of 5 file(s) to Downloads." {
		t.Errorf("Partial body = %q", partial.Body())
	}

	success := Summarize(3, 3)
	if success.Title() != "Export complete" {
		t.Errorf("AllSucceeded title = %q", success.Title())
	}
}

type recordingPoster struct {
	posted    []int64
	titles    []string
	cancelled []int64
}

func (p *recordingPoster) Post(id int64, title, body string) error {
	p.posted = append(p.posted, id)
	p.titles = append(p.titles, title)
	return nil
}

func (p *recordingPoster) Cancel(id int64) error {
	p.cancelled = append(p.cancelled, id)
	return nil
}

type fixedAllocator struct{ next int64 }

func (a *fixedAllocator) NextID() int64 {
	a.next++
	return a.next
}

func newTestNotifier(poster *recordingPoster, opts ...NotifierOption) *Notifier {
	base := []NotifierOption{
		WithPoster(poster),
		WithIDAllocator(&fixedAllocator{}),
		WithFolderOpener(func(string) error { return nil }),
	}
	return NewNotifier("/downloads", logging.NewLogger(io.Discard), append(base, opts...)...)
}

func TestEmit_PostsExactlyOnce(t *testing.T) {
	poster := &recordingPoster{}
	n := newTestNotifier(poster)

	n.Emit(Summarize(3, 3), "user@example.com")

	if len(poster.posted) != 1 {
		t.Fatalf("posted %d notifications, want exactly 1", len(poster.posted))
	}
	if poster.posted[0] != 1 {
		t.Errorf("notification ID = %d, want allocator-provided 1", poster.posted[0])
	}
}

func TestEmit_FreshIDPerBatch(t *testing.T) {
	poster := &recordingPoster{}
	n := newTestNotifier(poster)

	a1 := n.Emit(Summarize(1, 1), "u")
	a2 := n.Emit(Summarize(0, 1), "u")

	if a1.ID == a2.ID {
		t.Errorf("two batch runs shared notification ID %d", a1.ID)
	}
}

func TestAction_OpensFolderAndDismisses(t *testing.T) {
	poster := &recordingPoster{}
	var openedDir string
	n := newTestNotifier(poster, WithFolderOpener(func(dir string) error {
		openedDir = dir
		return nil
	}))

	action := n.Emit(Summarize(2, 2), "u")
	if err := action.Invoke(); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if openedDir != "/downloads" {
		t.Errorf("action opened %q, want /downloads", openedDir)
	}
	if len(poster.cancelled) != 1 || poster.cancelled[0] != action.ID {
		t.Errorf("action cancelled %v, want exactly its own ID %d", poster.cancelled, action.ID)
	}
}

func TestEmit_Disabled(t *testing.T) {
	poster := &recordingPoster{}
	n := newTestNotifier(poster, Disabled())

	n.Emit(Summarize(1, 2), "u")

	if len(poster.posted) != 0 {
		t.Errorf("disabled notifier still posted %d notifications", len(poster.posted))
	}
}

func TestRandomIDAllocator(t *testing.T) {
	alloc := RandomIDAllocator{}
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		id := alloc.NextID()
		if id < 0 {
			t.Fatalf("negative ID %d", id)
		}
		seen[id] = true
	}
	// 100 draws from a 62-bit space colliding would mean a broken allocator.
	if len(seen) < 100 {
		t.Errorf("allocator produced %d distinct IDs out of 100 draws", len(seen))
	}
}
