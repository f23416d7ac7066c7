package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/mediafetch/internal/domain"
)

// Orchestrator runs a batch of references: it resolves each one, creates the
// collection folder and drives every item through an ItemWorker.
type Orchestrator struct {
	resolver domain.Resolver
	gate     domain.ExistenceGate
	config   domain.FetchConfig
	logger   *zap.Logger
}

// NewOrchestrator creates a new batch orchestrator
func NewOrchestrator(resolver domain.Resolver, gate domain.ExistenceGate, config domain.FetchConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		resolver: resolver,
		gate:     gate,
		config:   config,
		logger:   logger,
	}
}

// Run processes references in order. Per-reference and per-item failures are
// reported as events and recorded in the result; only an empty batch, a batch
// with no valid references or an unusable output directory fail the call.
func (o *Orchestrator) Run(ctx context.Context, refs []string, sink domain.EventSink) (*domain.BatchResult, error) {
	if len(refs) == 0 {
		return nil, domain.ErrNoReferences
	}

	valid, rejected, verr := domain.ValidateReferences(refs)
	result := &domain.BatchResult{
		Rejected:  rejected,
		Items:     []domain.ItemResult{},
		StartedAt: time.Now(),
	}
	if verr != nil {
		o.logger.Warn("Rejected references", zap.Strings("rejected", rejected), zap.Error(verr))
	}
	if len(valid) == 0 {
		result.FinishedAt = time.Now()
		return result, fmt.Errorf("%w: %v", domain.ErrNoValidReferences, verr)
	}

	if sink == nil {
		sink = domain.EventSinkFunc(func(domain.DownloadEvent) {})
	}

	if err := os.MkdirAll(o.config.OutputDir, 0755); err != nil {
		result.FinishedAt = time.Now()
		return result, fmt.Errorf("failed to create output directory: %w", err)
	}

	o.logger.Info("Batch started",
		zap.Int("references", len(valid)),
		zap.Int("rejected", len(rejected)))

	for _, ref := range valid {
		for _, item := range o.runReference(ctx, ref, sink) {
			result.Add(item)
		}
	}

	result.FinishedAt = time.Now()
	o.logger.Info("Batch finished",
		zap.Int("completed", result.Completed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}

// runReference resolves one reference and downloads its items. It returns the
// outcome of every item, or a single reference-scoped failure.
func (o *Orchestrator) runReference(ctx context.Context, ref string, sink domain.EventSink) []domain.ItemResult {
	fail := func(err error) []domain.ItemResult {
		o.logger.Warn("Reference failed", zap.String("reference", ref), zap.Error(err))
		sink.Publish(domain.NewReferenceFailure(ref, err))
		return []domain.ItemResult{{
			Reference: ref,
			Scope:     domain.ScopeReference,
			Title:     ref,
			Phase:     domain.PhaseFailed,
			Detail:    err.Error(),
		}}
	}

	if ctx.Err() != nil {
		return fail(errors.New("cancelled"))
	}

	res := o.resolve(ctx, ref)
	if res.Kind == domain.ResolvedError {
		return fail(res.Err)
	}

	title := res.Title()
	items := res.Items()
	folder := domain.Sanitize(title)
	if folder == "" && len(items) > 0 {
		return o.failItems(ref, title, items, &domain.PathError{Title: title}, sink)
	}
	if folder == "" {
		return fail(&domain.PathError{Title: title})
	}
	dir := filepath.Join(o.config.OutputDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create collection folder: %w", err))
	}

	o.logger.Info("Reference resolved",
		zap.String("reference", ref),
		zap.String("kind", string(res.Kind)),
		zap.String("title", title),
		zap.Int("items", len(items)))

	limit := o.config.MaxConcurrentItems
	if limit <= 0 {
		limit = -1
	}

	// Outcomes keep collection order regardless of completion order
	outcomes := make([]domain.ItemResult, len(items))
	var g errgroup.Group
	g.SetLimit(limit)
	for _, group := range groupByOutputName(items) {
		group := group
		g.Go(func() error {
			gate := o.gate
			if len(group) > 1 {
				// Colliding titles share one file: decide skip once for the whole
				// group, then write in collection order so the last item wins.
				gate = snapshotGate{exists: o.gate.Exists(o.outputPath(dir, items[group[0]]))}
			}
			for _, i := range group {
				w := &ItemWorker{
					reference:  ref,
					collection: title,
					item:       items[i],
					dir:        dir,
					extension:  o.config.Extension,
					resolver:   o.resolver,
					gate:       gate,
					sink:       sink,
					logger:     o.logger,
				}
				outcomes[i] = w.Run(ctx)
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// failItems ends every item of a reference with the same error, each through
// its own Queued then Failed pair.
func (o *Orchestrator) failItems(ref, collection string, items []domain.ItemDescriptor, err error, sink domain.EventSink) []domain.ItemResult {
	o.logger.Warn("Collection folder unusable",
		zap.String("reference", ref),
		zap.String("title", collection),
		zap.Int("items", len(items)))

	outcomes := make([]domain.ItemResult, len(items))
	for i, item := range items {
		sink.Publish(domain.NewItemEvent(ref, collection, item.Title, domain.PhaseQueued, ""))
		sink.Publish(domain.NewItemEvent(ref, collection, item.Title, domain.PhaseFailed, err.Error()))
		outcomes[i] = domain.ItemResult{
			Reference:  ref,
			Scope:      domain.ScopeItem,
			Collection: collection,
			Title:      item.Title,
			Phase:      domain.PhaseFailed,
			Detail:     err.Error(),
		}
	}
	return outcomes
}

func (o *Orchestrator) outputPath(dir string, item domain.ItemDescriptor) string {
	return filepath.Join(dir, domain.Sanitize(item.Title)+o.config.Extension)
}

// groupByOutputName returns item indices grouped by sanitized title, groups
// ordered by first appearance. Unusable titles never share a group.
func groupByOutputName(items []domain.ItemDescriptor) [][]int {
	var groups [][]int
	byName := make(map[string]int)
	for i, item := range items {
		name := domain.Sanitize(item.Title)
		if name == "" {
			groups = append(groups, []int{i})
			continue
		}
		if g, ok := byName[name]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		byName[name] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}

// snapshotGate answers with the existence recorded before a collision group
// started, so files written by earlier members do not skip later ones.
type snapshotGate struct {
	exists bool
}

func (s snapshotGate) Exists(string) bool {
	return s.exists
}

// resolve classifies a reference as a collection or a lone item
func (o *Orchestrator) resolve(ctx context.Context, ref string) domain.Resolution {
	meta, err := o.resolver.ResolveCollection(ctx, ref)
	if err == nil {
		return domain.Resolution{Kind: domain.ResolvedCollection, Reference: ref, Collection: meta}
	}
	if !errors.Is(err, domain.ErrNotACollection) {
		return domain.Resolution{Kind: domain.ResolvedError, Reference: ref, Err: asResolutionError("collection", ref, err)}
	}

	item, err := o.resolver.ResolveItem(ctx, ref)
	if err != nil {
		return domain.Resolution{Kind: domain.ResolvedError, Reference: ref, Err: asResolutionError("item", ref, err)}
	}
	return domain.Resolution{Kind: domain.ResolvedItem, Reference: ref, Item: item}
}

func asResolutionError(scope, ref string, err error) error {
	var rerr *domain.ResolutionError
	if errors.As(err, &rerr) {
		return err
	}
	return &domain.ResolutionError{Scope: scope, Reference: ref, Err: err}
}
