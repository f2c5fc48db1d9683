// Package batch runs one export batch: it walks an ordered list of file
// identifiers, exports the ones already cached locally, delegates the rest
// to the download service, and emits a single summary notification.
package batch

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/filedrop/filedrop/internal/catalog"
	"github.com/filedrop/filedrop/internal/export"
	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/notify"
)

// DispatchIntent tags delegated downloads for export-on-completion handling
// by the download service.
const DispatchIntent = "export"

// Job is one batch export request. It is consumed entirely by a single
// Worker run and not persisted beyond it.
type Job struct {
	ID      uuid.UUID
	FileIDs []string
	Account string
}

// NewJob creates a batch job for the given identifiers.
func NewJob(fileIDs []string, account string) Job {
	return Job{
		ID:      uuid.New(),
		FileIDs: fileIDs,
		Account: account,
	}
}

// Outcome is the worker-local tally for one run. It is mutated only by the
// goroutine running the batch and never shared across concurrent batches.
type Outcome struct {
	Attempted int
	Succeeded int
	Aborted   bool // space exhaustion stopped the batch early
}

// Exporter copies one file into the downloads area.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

// SpaceChecker gates each file on remaining space in the downloads area.
type SpaceChecker interface {
	HasSufficientSpace(requiredBytes int64) bool
}

// Dispatcher hands a not-yet-cached file to the external download service.
type Dispatcher interface {
	Dispatch(ctx context.Context, fileID, intent string) error
}

// Notifier emits the run's single summary notification.
type Notifier interface {
	Emit(summary notify.Summary, account string) *notify.Action
}

// Worker processes batch jobs sequentially on its caller's goroutine.
// Separate Worker instances may run concurrently; they share no mutable
// state, so final destination names under concurrent batches are resolved
// by the storage layer's reservation conflict handling, not by locking here.
type Worker struct {
	resolver   catalog.Resolver
	space      SpaceChecker
	exporter   Exporter
	dispatcher Dispatcher
	notifier   Notifier
	logger     *logging.Logger
}

// NewWorker wires a worker from its collaborators.
func NewWorker(
	resolver catalog.Resolver,
	space SpaceChecker,
	exporter Exporter,
	dispatcher Dispatcher,
	notifier Notifier,
	logger *logging.Logger,
) *Worker {
	return &Worker{
		resolver:   resolver,
		space:      space,
		exporter:   exporter,
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
	}
}

// Run processes the job's identifiers in order, one at a time.
//
// Per identifier: unresolvable IDs are skipped silently and not counted;
// a failed space check aborts the whole remaining batch; export and dispatch
// errors fail that file only. The attempted counter moves exactly once per
// handled identifier, success or failure. Exactly one notification is
// emitted per run. After an abort the tally is reported against the full
// original batch size, so the abort path can never read as fully succeeded.
func (w *Worker) Run(ctx context.Context, job Job) Outcome {
	logger := w.logger.With().
		Str("batch", job.ID.String()).
		Str("account", job.Account).
		Logger()

	var out Outcome

	for _, fileID := range job.FileIDs {
		desc, err := w.resolver.Resolve(ctx, fileID)
		if err != nil {
			if !errors.Is(err, catalog.ErrNotFound) {
				logger.Warn().Err(err).Str("file", fileID).Msg("Descriptor lookup failed")
			}
			// Unresolvable: move on without counting an attempt.
			continue
		}

		if !w.space.HasSufficientSpace(desc.Size) {
			logger.Warn().
				Str("file", fileID).
				Int64("size", desc.Size).
				Msg("Insufficient space, aborting remaining batch")
			out.Aborted = true
			break
		}

		if desc.IsLocallyCached {
			w.exportLocal(ctx, desc, &out, logger)
		} else {
			w.delegate(ctx, fileID, &out, logger)
		}
		out.Attempted++
	}

	// The abort path reports against the full intended batch size; the
	// normal path reports against the attempted count.
	total := out.Attempted
	if out.Aborted {
		total = len(job.FileIDs)
	}
	w.notifier.Emit(notify.Summarize(out.Succeeded, total), job.Account)

	logger.Info().
		Int("attempted", out.Attempted).
		Int("succeeded", out.Succeeded).
		Bool("aborted", out.Aborted).
		Msg("Batch finished")

	return out
}

func (w *Worker) exportLocal(ctx context.Context, desc *catalog.Descriptor, out *Outcome, logger zerolog.Logger) {
	result, err := w.exporter.Export(ctx, export.Request{
		DisplayName: desc.Name,
		ContentType: desc.MIMEType,
		LocalPath:   desc.LocalPath,
		Size:        desc.Size,
	})
	if err != nil {
		logger.Warn().Err(err).Str("file", desc.ID).Msg("Export failed")
		return
	}
	logger.Debug().Str("file", desc.ID).Str("name", result.Name).Msg("Exported cached file")
	out.Succeeded++
}

func (w *Worker) delegate(ctx context.Context, fileID string, out *Outcome, logger zerolog.Logger) {
	if err := w.dispatcher.Dispatch(ctx, fileID, DispatchIntent); err != nil {
		logger.Warn().Err(err).Str("file", fileID).Msg("Download dispatch failed")
		return
	}
	out.Succeeded++
}
