package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

const bytesPerMB = 1024 * 1024

// ItemWorker drives one item through its lifecycle:
// queued -> {skipped | sizing} -> downloading -> {completed | failed}.
// Every transition is published to the sink from the calling goroutine, so
// events of one item are always observed in state-machine order.
type ItemWorker struct {
	reference  string
	collection string
	item       domain.ItemDescriptor
	dir        string
	extension  string

	resolver domain.Resolver
	gate     domain.ExistenceGate
	sink     domain.EventSink
	logger   *zap.Logger

	path   string
	handle domain.StreamHandle
	phase  domain.Phase
}

// Run drives the item to a terminal phase and returns its outcome. It never
// returns an error: every failure becomes a Failed outcome.
func (w *ItemWorker) Run(ctx context.Context) domain.ItemResult {
	w.emit(domain.PhaseQueued, "")

	detail := ""
	for !w.phase.IsTerminal() {
		var next domain.Phase
		next, detail = w.step(ctx)
		w.emit(next, detail)
	}

	return domain.ItemResult{
		Reference:  w.reference,
		Scope:      domain.ScopeItem,
		Collection: w.collection,
		Title:      w.item.Title,
		Phase:      w.phase,
		Detail:     detail,
		Path:       w.path,
	}
}

// step performs the work of the current phase and returns the next phase
// with its event detail.
func (w *ItemWorker) step(ctx context.Context) (domain.Phase, string) {
	switch w.phase {
	case domain.PhaseQueued:
		name := domain.Sanitize(w.item.Title)
		if name == "" {
			return domain.PhaseFailed, (&domain.PathError{Title: w.item.Title}).Error()
		}
		w.path = filepath.Join(w.dir, name+w.extension)

		// Must happen before any network call
		if w.gate.Exists(w.path) {
			return domain.PhaseSkipped, "already exists"
		}
		if ctx.Err() != nil {
			return domain.PhaseFailed, "cancelled"
		}
		return domain.PhaseSizing, ""

	case domain.PhaseSizing:
		handle, err := w.resolver.BestStream(ctx, w.item)
		if errors.Is(err, domain.ErrNoStreamAvailable) {
			return domain.PhaseFailed, domain.ErrNoStreamAvailable.Error()
		}
		if err != nil {
			return domain.PhaseFailed, err.Error()
		}
		w.handle = handle
		return domain.PhaseDownloading, fmt.Sprintf("%d MB", handle.Size()/bytesPerMB)

	case domain.PhaseDownloading:
		// Partial files are left in place on failure
		if err := w.handle.Transfer(ctx, w.path); err != nil {
			var terr *domain.TransferError
			if !errors.As(err, &terr) {
				err = &domain.TransferError{Path: w.path, Err: err}
			}
			return domain.PhaseFailed, err.Error()
		}
		return domain.PhaseCompleted, w.path

	default:
		return domain.PhaseFailed, fmt.Sprintf("unexpected phase %q", w.phase)
	}
}

func (w *ItemWorker) emit(phase domain.Phase, detail string) {
	if !domain.CanTransition(w.phase, phase) {
		// Programming error; refuse to publish an out-of-order event
		w.logger.Error("Invalid item transition",
			zap.String("title", w.item.Title),
			zap.String("from", string(w.phase)),
			zap.String("to", string(phase)))
		phase = domain.PhaseFailed
	}
	w.phase = phase

	w.logger.Debug("Item transition",
		zap.String("reference", w.reference),
		zap.String("title", w.item.Title),
		zap.String("phase", string(phase)),
		zap.String("detail", detail))

	w.sink.Publish(domain.NewItemEvent(w.reference, w.collection, w.item.Title, phase, detail))
}
