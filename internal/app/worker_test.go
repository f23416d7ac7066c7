package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/internal/events"
)

func newTestWorker(t *testing.T, resolver domain.Resolver, title, src string) (*ItemWorker, *events.Collector) {
	t.Helper()
	sink := &events.Collector{}
	return &ItemWorker{
		reference:  listRef,
		collection: "MyList",
		item:       domain.ItemDescriptor{Title: title, SourceReference: src},
		dir:        t.TempDir(),
		extension:  ".mp4",
		resolver:   resolver,
		gate:       statGate{},
		sink:       sink,
		logger:     zap.NewNop(),
	}, sink
}

func TestItemWorker_SizeDetailInWholeMegabytes(t *testing.T) {
	resolver := newMockResolver()
	resolver.streams["src"] = &mockStream{data: []byte("x"), size: 5*bytesPerMB + 1234}

	w, sink := newTestWorker(t, resolver, "Clip", "src")
	result := w.Run(context.Background())

	assert.Equal(t, domain.PhaseCompleted, result.Phase)
	assert.Equal(t, filepath.Join(w.dir, "Clip.mp4"), result.Path)
	evs := sink.Events()
	require.Len(t, evs, 4)
	assert.Equal(t, "5 MB", evs[2].Detail)
	assert.Equal(t, result.Path, evs[3].Detail)
	for _, ev := range evs {
		assert.Equal(t, "MyList", ev.Collection)
		assert.Equal(t, domain.ScopeItem, ev.Scope)
	}
}

func TestItemWorker_TransferFailure(t *testing.T) {
	resolver := newMockResolver()
	resolver.streams["src"] = &mockStream{err: errors.New("disk full")}

	w, sink := newTestWorker(t, resolver, "Clip", "src")
	result := w.Run(context.Background())

	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, "transfer to "+filepath.Join(w.dir, "Clip.mp4")+" failed: disk full", result.Detail)
	assert.Equal(t, []domain.Phase{domain.PhaseQueued, domain.PhaseSizing, domain.PhaseDownloading, domain.PhaseFailed}, sink.ForItem("Clip"))
}

func TestItemWorker_NoStream(t *testing.T) {
	w, sink := newTestWorker(t, newMockResolver(), "Clip", "missing")
	result := w.Run(context.Background())

	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, "no suitable stream", result.Detail)
	assert.Equal(t, []domain.Phase{domain.PhaseQueued, domain.PhaseSizing, domain.PhaseFailed}, sink.ForItem("Clip"))
}

func TestItemWorker_CancelledBeforeNetwork(t *testing.T) {
	resolver := newMockResolver()
	resolver.streams["src"] = &mockStream{data: []byte("x")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w, sink := newTestWorker(t, resolver, "Clip", "src")
	result := w.Run(ctx)

	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Equal(t, "cancelled", result.Detail)
	assert.Equal(t, 0, resolver.calls())
	assert.Equal(t, []domain.Phase{domain.PhaseQueued, domain.PhaseFailed}, sink.ForItem("Clip"))
}

func TestItemWorker_UnusableTitle(t *testing.T) {
	w, sink := newTestWorker(t, newMockResolver(), "!!!", "src")
	result := w.Run(context.Background())

	assert.Equal(t, domain.PhaseFailed, result.Phase)
	assert.Empty(t, result.Path)
	assert.Equal(t, []domain.Phase{domain.PhaseQueued, domain.PhaseFailed}, sink.ForItem("!!!"))
}
