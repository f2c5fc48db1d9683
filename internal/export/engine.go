// Package export copies file content from a byte source into the public
// downloads area under a collision-free display name.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/storage"
	"github.com/filedrop/filedrop/internal/util/buffers"
	"github.com/filedrop/filedrop/internal/util/naming"
)

// DefaultMaxNameAttempts caps the collision rename loop. The reference
// behavior retried without bound; a cap turns a pathological downloads
// directory into a clean ErrNoAvailableName instead of a spin.
const DefaultMaxNameAttempts = 1000

// RemoteRef is an opaque handle to a remotely-stored byte stream. The caller
// owns it only for the duration of the export call.
type RemoteRef string

// Request describes one export. Exactly one of LocalPath and Remote must be
// set; anything else is rejected with ErrInvalidRequest.
type Request struct {
	DisplayName string
	ContentType string

	LocalPath string    // source variant A: already-cached local file
	Remote    RemoteRef // source variant B: remote-backed stream

	// Size is the declared source size, used only for progress reporting.
	// Zero means unknown.
	Size int64
}

// Result reports where an export landed.
type Result struct {
	Name  string // final display name after collision resolution
	Path  string // destination path in the downloads area
	Bytes int64  // bytes copied
}

// StreamOpener resolves a RemoteRef to a readable stream.
type StreamOpener interface {
	Open(ctx context.Context, ref RemoteRef) (io.ReadCloser, error)
}

// ProgressSink observes one copy at a time. The engine is strictly
// sequential, so implementations need not be safe for concurrent use.
type ProgressSink interface {
	Start(name string, total int64)
	Advance(n int)
	Finish()
}

// Engine streams bytes from a source into a reserved destination slot.
type Engine struct {
	strategy        storage.Strategy
	opener          StreamOpener
	logger          *logging.Logger
	maxNameAttempts int
	progress        ProgressSink
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxNameAttempts overrides the collision retry cap.
func WithMaxNameAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxNameAttempts = n
		}
	}
}

// WithProgress installs a sink that observes each copy.
func WithProgress(sink ProgressSink) Option {
	return func(e *Engine) {
		e.progress = sink
	}
}

// NewEngine creates an export engine. opener may be nil when only
// LocalPath-sourced requests will be made.
func NewEngine(strategy storage.Strategy, opener StreamOpener, logger *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		strategy:        strategy,
		opener:          opener,
		logger:          logger,
		maxNameAttempts: DefaultMaxNameAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export copies the request's source into the downloads area. The final name
// is the requested display name, renamed through the collision resolver when
// the name is already taken. On I/O failure both handles are released and any
// partially written destination bytes remain in place.
func (e *Engine) Export(ctx context.Context, req Request) (*Result, error) {
	src, err := e.openSource(ctx, req)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	res, err := e.reserve(req.DisplayName, req.ContentType)
	if err != nil {
		return nil, err
	}

	n, err := e.copy(ctx, res, src, req)
	if err != nil {
		// Close the destination handle but keep the partial file; callers
		// are told about the failure, never silently handed a truncated
		// export.
		_ = res.Close()
		return nil, err
	}

	if err := res.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %v", ErrIOFailure, res.Path, err)
	}

	e.logger.Debug().
		Str("name", res.Name).
		Str("path", res.Path).
		Int64("bytes", n).
		Msg("Export complete")

	return &Result{Name: res.Name, Path: res.Path, Bytes: n}, nil
}

// openSource validates the request and opens its single byte source.
func (e *Engine) openSource(ctx context.Context, req Request) (io.ReadCloser, error) {
	hasLocal := req.LocalPath != ""
	hasRemote := req.Remote != ""
	if hasLocal == hasRemote {
		return nil, ErrInvalidRequest
	}

	if hasLocal {
		f, err := os.Open(req.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrNoSource, req.LocalPath, err)
		}
		return f, nil
	}

	if e.opener == nil {
		return nil, fmt.Errorf("%w: no stream opener configured", ErrNoSource)
	}
	rc, err := e.opener.Open(ctx, req.Remote)
	if err != nil {
		return nil, fmt.Errorf("%w: open remote ref: %v", ErrNoSource, err)
	}
	return rc, nil
}

// reserve claims a destination slot, walking the collision resolver through
// attempts 2, 3, 4, ... when the requested name is taken.
func (e *Engine) reserve(displayName, contentType string) (*storage.Reservation, error) {
	res, err := e.strategy.Reserve(displayName, contentType)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, storage.ErrNameTaken) {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	for attempt := naming.FirstAttempt; attempt <= e.maxNameAttempts; attempt++ {
		candidate := naming.Resolve(displayName, attempt)
		res, err := e.strategy.Reserve(candidate, contentType)
		if err == nil {
			e.logger.Debug().
				Str("requested", displayName).
				Str("reserved", candidate).
				Int("attempt", attempt).
				Msg("Resolved name collision")
			return res, nil
		}
		if !errors.Is(err, storage.ErrNameTaken) {
			return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}
	}
	return nil, fmt.Errorf("%w: %q after %d attempts", ErrNoAvailableName, displayName, e.maxNameAttempts)
}

// copy streams all bytes through a pooled fixed-size buffer.
func (e *Engine) copy(ctx context.Context, dst *storage.Reservation, src io.Reader, req Request) (int64, error) {
	buf := buffers.GetCopyBuffer()
	defer buffers.PutCopyBuffer(buf)

	if e.progress != nil {
		e.progress.Start(dst.Name, req.Size)
		defer e.progress.Finish()
	}

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w: %v", ErrIOFailure, err)
		}

		n, rerr := src.Read(*buf)
		if n > 0 {
			wn, werr := dst.Write((*buf)[:n])
			written += int64(wn)
			if e.progress != nil {
				e.progress.Advance(wn)
			}
			if werr != nil {
				return written, fmt.Errorf("%w: write %s: %v", ErrIOFailure, dst.Path, werr)
			}
			if wn != n {
				return written, fmt.Errorf("%w: short write to %s", ErrIOFailure, dst.Path)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: read source: %v", ErrIOFailure, rerr)
		}
	}
}
