// Package notify renders the single per-batch summary notification.
// Desktop delivery uses github.com/gen2brain/beeep behind the Poster seam.
package notify

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os/exec"
	"runtime"

	"github.com/gen2brain/beeep"

	"github.com/filedrop/filedrop/internal/logging"
)

// Variant selects the summary message shape.
type Variant int

const (
	AllFailed Variant = iota
	PartiallySucceeded
	AllSucceeded
)

func (v Variant) String() string {
	switch v {
	case AllFailed:
		return "all_failed"
	case PartiallySucceeded:
		return "partially_succeeded"
	case AllSucceeded:
		return "all_succeeded"
	}
	return "unknown"
}

// Summary is the aggregate outcome of one batch run.
type Summary struct {
	Succeeded int
	Total     int
	Variant   Variant
}

// Summarize derives the message variant from the batch tally. Total is the
// batch size the tally is reported against: the attempted count on a normal
// run, the full original batch size after an early abort. An empty batch
// counts as fully succeeded.
func Summarize(succeeded, total int) Summary {
	s := Summary{Succeeded: succeeded, Total: total}
	switch {
	case total == 0:
		s.Variant = AllSucceeded
	case succeeded == 0:
		s.Variant = AllFailed
	case succeeded < total:
		s.Variant = PartiallySucceeded
	default:
		s.Variant = AllSucceeded
	}
	return s
}

// Title returns the notification title for the summary.
func (s Summary) Title() string {
	switch s.Variant {
	case AllFailed:
		return "Export failed"
	case PartiallySucceeded:
		return "Export incomplete"
	default:
		return "Export complete"
	}
}

// Body returns the notification body for the summary.
func (s Summary) Body() string {
	switch s.Variant {
	case AllFailed:
		return fmt.Sprintf("None of %d file(s) could be exported to Downloads.", s.Total)
	case PartiallySucceeded:
		return fmt.Sprintf("Exported %d of %d file(s) to Downloads.", s.Succeeded, s.Total)
	default:
		return fmt.Sprintf("Exported %d file(s) to Downloads.", s.Succeeded)
	}
}

// IDAllocator produces notification IDs. Each batch run gets a fresh ID so a
// recovery action dismisses exactly its own notification.
type IDAllocator interface {
	NextID() int64
}

// RandomIDAllocator allocates random numeric IDs.
type RandomIDAllocator struct{}

// NextID returns a random non-negative ID.
func (RandomIDAllocator) NextID() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		// rand.Reader failing is effectively unreachable; fall back to a
		// fixed ID rather than propagating an error through Emit.
		return 1
	}
	return n.Int64()
}

// Poster delivers notifications to the platform. The default is beeep; tests
// substitute a recorder.
type Poster interface {
	Post(id int64, title, body string) error
	Cancel(id int64) error
}

// BeeepPoster posts desktop notifications via beeep.
type BeeepPoster struct{}

// Post implements Poster.
func (BeeepPoster) Post(id int64, title, body string) error {
	return beeep.Notify(title, body, "")
}

// Cancel implements Poster. Desktop toasts dismiss themselves; nothing to do.
func (BeeepPoster) Cancel(id int64) error {
	return nil
}

// Action is the notification's recovery action: it opens the downloads
// folder and dismisses the notification it was attached to.
type Action struct {
	ID  int64
	Dir string

	poster Poster
	open   func(dir string) error
}

// Invoke opens the downloads folder and cancels this notification.
func (a *Action) Invoke() error {
	if err := a.open(a.Dir); err != nil {
		return fmt.Errorf("open downloads folder: %w", err)
	}
	return a.poster.Cancel(a.ID)
}

// OpenFolder opens dir in the platform file manager.
func OpenFolder(dir string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", dir)
	case "windows":
		cmd = exec.Command("explorer", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	return cmd.Start()
}

// Notifier emits batch summary notifications.
type Notifier struct {
	poster       Poster
	alloc        IDAllocator
	logger       *logging.Logger
	downloadsDir string
	enabled      bool
	openFolder   func(dir string) error
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithPoster overrides the delivery mechanism.
func WithPoster(p Poster) NotifierOption {
	return func(n *Notifier) { n.poster = p }
}

// WithIDAllocator overrides ID allocation (deterministic IDs in tests).
func WithIDAllocator(a IDAllocator) NotifierOption {
	return func(n *Notifier) { n.alloc = a }
}

// WithFolderOpener overrides how the recovery action opens the folder.
func WithFolderOpener(open func(dir string) error) NotifierOption {
	return func(n *Notifier) { n.openFolder = open }
}

// Disabled turns off delivery; Emit still allocates IDs and logs.
func Disabled() NotifierOption {
	return func(n *Notifier) { n.enabled = false }
}

// NewNotifier creates a notifier targeting the given downloads directory.
func NewNotifier(downloadsDir string, logger *logging.Logger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		poster:       BeeepPoster{},
		alloc:        RandomIDAllocator{},
		logger:       logger,
		downloadsDir: downloadsDir,
		enabled:      true,
		openFolder:   OpenFolder,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Emit posts exactly one notification for the summary and returns its
// recovery action. The account identifies whose batch this was, for logging
// only; per-file detail never reaches the notification.
func (n *Notifier) Emit(summary Summary, account string) *Action {
	id := n.alloc.NextID()

	n.logger.Info().
		Int64("notification_id", id).
		Str("account", account).
		Str("variant", summary.Variant.String()).
		Int("succeeded", summary.Succeeded).
		Int("total", summary.Total).
		Msg("Batch summary")

	if n.enabled {
		if err := n.poster.Post(id, summary.Title(), summary.Body()); err != nil {
			n.logger.Warn().Err(err).Msg("Failed to post summary notification")
		}
	}

	return &Action{
		ID:     id,
		Dir:    n.downloadsDir,
		poster: n.poster,
		open:   n.openFolder,
	}
}
