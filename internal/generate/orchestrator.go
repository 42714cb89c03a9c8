package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/predict"
	"tagsmith/internal/services"
	"tagsmith/internal/store"
	"tagsmith/internal/suggest"
	"tagsmith/internal/taxonomy"
	"tagsmith/internal/vocab"
)

// SourceProvider yields the current prediction source snapshot.
type SourceProvider interface {
	Sources() []predict.Source
}

// Orchestrator drives suggestion generation: dispatch sources, map labels,
// resolve taxonomy, filter, merge, persist. It also runs the background
// worker pool for enqueued images.
type Orchestrator struct {
	cfg        *config.Config
	store      *store.Store
	sources    SourceProvider
	dispatcher *predict.Dispatcher
	mapper     *vocab.Mapper
	resolver   *taxonomy.Resolver
	thresholds *suggest.Thresholds
	merger     *suggest.Merger
	logger     *slog.Logger

	mu      sync.Mutex
	queue   chan request
	wg      sync.WaitGroup
	started bool
}

type request struct {
	imageID int64
	force   bool
}

// New wires the generation pipeline together.
func New(
	cfg *config.Config,
	st *store.Store,
	sources SourceProvider,
	dispatcher *predict.Dispatcher,
	mapper *vocab.Mapper,
	resolver *taxonomy.Resolver,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		sources:    sources,
		dispatcher: dispatcher,
		mapper:     mapper,
		resolver:   resolver,
		thresholds: suggest.NewThresholds(cfg.Thresholds),
		merger:     suggest.NewMerger(cfg.Sources),
		logger:     logging.NewComponentLogger(logger, "generate"),
	}
}

// Generate produces suggestions for one image. Attempt-level failures are
// retried up to the configured bound with backoff; a run record is kept for
// operators either way.
func (o *Orchestrator) Generate(ctx context.Context, imageID int64, force bool) (Result, error) {
	attemptID := uuid.NewString()
	ctx = logging.WithImageID(ctx, imageID)
	ctx = logging.WithAttemptID(ctx, attemptID)
	logger := logging.WithContext(ctx, o.logger)

	run, err := o.store.StartRun(ctx, attemptID, imageID)
	if err != nil {
		return Result{Status: StatusFailed, AttemptID: attemptID},
			services.Wrap(services.ErrTransient, "generate", "start", "recording run failed", err)
	}

	if !force {
		exists, err := o.store.HasSuggestions(ctx, imageID)
		if err != nil {
			return o.fail(ctx, logger, run.ID, attemptID, 0,
				services.Wrap(services.ErrTransient, "generate", "skip-check", "suggestion lookup failed", err))
		}
		if exists {
			logger.Info("image already has suggestions, skipping",
				logging.String(logging.FieldEventType, "generation_skipped"))
			if err := o.store.FinishRun(ctx, run.ID, store.RunOutcome{Status: store.RunSkipped}); err != nil {
				logger.Warn("failed to record skipped run", logging.Error(err))
			}
			return Result{Status: StatusSkipped, AttemptID: attemptID}, nil
		}
	}

	maxAttempts := o.cfg.Workflow.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := time.Duration(o.cfg.Workflow.RetryBackoffSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		created, failedSources, err := o.attempt(ctx, logger, imageID)
		if err == nil {
			partial := len(failedSources) > 0
			outcome := store.RunOutcome{
				Status:             store.RunCompleted,
				Attempts:           attempt,
				Partial:            partial,
				FailedSources:      failedSources,
				SuggestionsCreated: created,
			}
			if err := o.store.FinishRun(ctx, run.ID, outcome); err != nil {
				logger.Warn("failed to record completed run", logging.Error(err))
			}
			logger.Info("generation completed",
				logging.String(logging.FieldEventType, "generation_completed"),
				logging.Int("suggestions_created", created),
				logging.Bool("partial", partial),
				logging.Int("attempt", attempt),
			)
			return Result{
				Status:             StatusCompleted,
				AttemptID:          attemptID,
				SuggestionsCreated: created,
				Partial:            partial,
				FailedSources:      failedSources,
			}, nil
		}

		lastErr = err
		if attempt < maxAttempts && services.Retryable(err) {
			logger.Warn("generation attempt failed, retrying",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			if backoff > 0 {
				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					return o.fail(ctx, logger, run.ID, attemptID, attempt, ctx.Err())
				case <-timer.C:
				}
			}
			continue
		}
		return o.fail(ctx, logger, run.ID, attemptID, attempt, lastErr)
	}
	return o.fail(ctx, logger, run.ID, attemptID, maxAttempts, lastErr)
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, runID int64, attemptID string, attempts int, cause error) (Result, error) {
	logger.Error("generation failed",
		logging.String(logging.FieldEventType, "generation_failed"),
		logging.Int("attempt", attempts),
		logging.Error(cause),
	)
	outcome := store.RunOutcome{
		Status:       store.RunFailed,
		Attempts:     attempts,
		ErrorMessage: services.Message(cause),
	}
	if err := o.store.FinishRun(ctx, runID, outcome); err != nil {
		logger.Warn("failed to record failed run", logging.Error(err))
	}
	return Result{Status: StatusFailed, AttemptID: attemptID}, cause
}

// attempt runs one end-to-end generation pass and reports the number of
// suggestion rows created plus the sources excluded from the merge input.
func (o *Orchestrator) attempt(ctx context.Context, logger *slog.Logger, imageID int64) (int, []string, error) {
	sources := o.sources.Sources()
	if len(sources) == 0 {
		return 0, nil, services.Wrap(services.ErrConfiguration, "generate", "attempt", "no prediction sources configured", nil)
	}

	imageRef := strconv.FormatInt(imageID, 10)
	outcomes := o.dispatcher.Dispatch(ctx, sources, imageRef)

	var failedSources []string
	usable := make([]predict.Outcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failedSources = append(failedSources, outcome.Source)
			continue
		}
		usable = append(usable, outcome)
	}
	if len(usable) == 0 {
		return 0, nil, services.Wrap(services.ErrExternalService, "generate", "attempt",
			fmt.Sprintf("all %d prediction sources failed", len(outcomes)), nil)
	}

	var candidates []suggest.Candidate
	for _, outcome := range usable {
		fromSource, err := o.candidatesFromOutcome(ctx, logger, imageID, outcome)
		if err != nil {
			return 0, nil, err
		}
		candidates = append(candidates, fromSource...)
	}

	merged := o.merger.Merge(o.thresholds.Filter(candidates))
	suggestions := make([]store.Suggestion, 0, len(merged))
	for _, candidate := range merged {
		suggestions = append(suggestions, candidate.Suggestion())
	}

	created, err := o.store.SaveGenerated(ctx, suggestions)
	if err != nil {
		return 0, nil, services.Wrap(services.ErrTransient, "generate", "attempt", "persisting suggestions failed", err)
	}
	return created, failedSources, nil
}

// candidatesFromOutcome maps one source's raw predictions into resolved,
// flagged candidates. Alias cycles and unknown tags drop the single candidate;
// storage errors fail the attempt.
func (o *Orchestrator) candidatesFromOutcome(ctx context.Context, logger *slog.Logger, imageID int64, outcome predict.Outcome) ([]suggest.Candidate, error) {
	type proposal struct {
		tagID      int64
		confidence float64
	}

	var proposals []proposal
	switch outcome.Kind {
	case predict.KindCustom:
		for _, prediction := range outcome.Predictions {
			if prediction.TagID == 0 {
				continue
			}
			proposals = append(proposals, proposal{tagID: prediction.TagID, confidence: prediction.Confidence})
		}
	case predict.KindGeneral:
		labels := make([]vocab.Label, 0, len(outcome.Predictions))
		for _, prediction := range outcome.Predictions {
			if prediction.Label == "" {
				continue
			}
			labels = append(labels, vocab.Label{Name: prediction.Label, Confidence: prediction.Confidence})
		}
		mapped, err := o.mapper.Map(ctx, outcome.Source, labels)
		if err != nil {
			return nil, err
		}
		for _, m := range mapped {
			proposals = append(proposals, proposal{tagID: m.TagID, confidence: m.Confidence})
		}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generate", "attempt",
			fmt.Sprintf("source %q has unknown kind %q", outcome.Source, outcome.Kind), nil)
	}

	candidates := make([]suggest.Candidate, 0, len(proposals))
	for _, p := range proposals {
		resolution, err := o.resolver.Resolve(ctx, p.tagID)
		if err != nil {
			var cycle *taxonomy.CycleError
			if errors.As(err, &cycle) {
				continue
			}
			if errors.Is(err, services.ErrNotFound) {
				logger.Warn("proposed tag does not exist, dropping candidate",
					logging.String(logging.FieldSource, outcome.Source),
					logging.Int64(logging.FieldTagID, p.tagID),
				)
				continue
			}
			return nil, err
		}

		candidates = append(candidates, suggest.Candidate{
			ImageID:           imageID,
			TagID:             resolution.Tag.ID,
			Category:          resolution.Tag.Category,
			Confidence:        p.confidence,
			Source:            outcome.Source,
			SourceVersion:     outcome.Version,
			ResolvedFromAlias: resolution.Aliased,
		})

		derived, err := o.resolver.Derive(ctx, resolution.Tag, p.confidence)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if derived != nil {
			candidates = append(candidates, suggest.Candidate{
				ImageID:          imageID,
				TagID:            derived.Tag.ID,
				Category:         derived.Tag.Category,
				Confidence:       derived.Confidence,
				Source:           outcome.Source,
				SourceVersion:    outcome.Version,
				HierarchyDerived: true,
			})
		}
	}
	return candidates, nil
}
