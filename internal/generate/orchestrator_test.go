package generate_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tagsmith/internal/config"
	"tagsmith/internal/generate"
	"tagsmith/internal/logging"
	"tagsmith/internal/predict"
	"tagsmith/internal/store"
	"tagsmith/internal/taxonomy"
	"tagsmith/internal/testsupport"
	"tagsmith/internal/vocab"
)

type stubProvider struct {
	sources []predict.Source
}

func (s *stubProvider) Sources() []predict.Source { return s.sources }

func newOrchestrator(cfg *config.Config, st *store.Store, sources ...predict.Source) *generate.Orchestrator {
	logger := logging.NewNop()
	return generate.New(
		cfg,
		st,
		&stubProvider{sources: sources},
		predict.NewDispatcher(cfg, logger),
		vocab.NewMapper(st, logger),
		taxonomy.NewResolver(st, cfg.Taxonomy, logger),
		logger,
	)
}

func customSource(fn func(context.Context, string) ([]predict.Prediction, error)) predict.SourceFunc {
	return predict.SourceFunc{SourceName: "custom", SourceVersion: "v1", SourceKind: predict.KindCustom, Fn: fn}
}

func generalSource(fn func(context.Context, string) ([]predict.Prediction, error)) predict.SourceFunc {
	return predict.SourceFunc{SourceName: "general", SourceVersion: "v1", SourceKind: predict.KindGeneral, Fn: fn}
}

func staticCustom(predictions ...predict.Prediction) predict.SourceFunc {
	return customSource(func(context.Context, string) ([]predict.Prediction, error) {
		return predictions, nil
	})
}

func TestGenerateThenSkip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	tag := testsupport.MustCreateTag(t, st, "castle", store.CategoryTheme, nil, nil)

	orchestrator := newOrchestrator(cfg, st, staticCustom(predict.Prediction{TagID: tag.ID, Confidence: 0.9}))

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 1, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Status != generate.StatusCompleted || result.SuggestionsCreated != 1 {
		t.Fatalf("unexpected first result: %#v", result)
	}

	result, err = orchestrator.Generate(ctx, 1, false)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if result.Status != generate.StatusSkipped {
		t.Fatalf("expected skip, got %#v", result)
	}

	suggestions, err := st.SuggestionsForImage(ctx, 1)
	if err != nil {
		t.Fatalf("SuggestionsForImage failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("row count must be unchanged after skip, got %d", len(suggestions))
	}

	// Forcing re-runs the pipeline; the unique index makes the write a no-op.
	result, err = orchestrator.Generate(ctx, 1, true)
	if err != nil {
		t.Fatalf("forced Generate failed: %v", err)
	}
	if result.Status != generate.StatusCompleted || result.SuggestionsCreated != 0 {
		t.Fatalf("unexpected forced result: %#v", result)
	}
}

func TestGenerateResolvesAliases(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	canonical := testsupport.MustCreateTag(t, st, "forest", store.CategoryTheme, nil, nil)
	alias := testsupport.MustCreateTag(t, st, "woods", store.CategoryTheme, testsupport.TagID(canonical.ID), nil)

	orchestrator := newOrchestrator(cfg, st, staticCustom(predict.Prediction{TagID: alias.ID, Confidence: 0.80}))

	ctx := context.Background()
	if _, err := orchestrator.Generate(ctx, 2, false); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	suggestions, err := st.SuggestionsForImage(ctx, 2)
	if err != nil {
		t.Fatalf("SuggestionsForImage failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	got := suggestions[0]
	if got.TagID != canonical.ID || got.Confidence != 0.80 || !got.ResolvedFromAlias {
		t.Fatalf("expected canonical alias-resolved suggestion, got %#v", got)
	}
}

func TestGeneratePropagatesToParent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	parent := testsupport.MustCreateTag(t, st, "animal", store.CategoryCharacter, nil, nil)
	child := testsupport.MustCreateTag(t, st, "wolf", store.CategoryCharacter, nil, testsupport.TagID(parent.ID))

	orchestrator := newOrchestrator(cfg, st, staticCustom(predict.Prediction{TagID: child.ID, Confidence: 0.75}))

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 3, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.SuggestionsCreated != 2 {
		t.Fatalf("expected child and derived parent rows, got %d", result.SuggestionsCreated)
	}

	suggestions, err := st.SuggestionsForImage(ctx, 3)
	if err != nil {
		t.Fatalf("SuggestionsForImage failed: %v", err)
	}
	byTag := make(map[int64]*store.Suggestion)
	for _, suggestion := range suggestions {
		byTag[suggestion.TagID] = suggestion
	}
	if got := byTag[child.ID]; got == nil || got.Confidence != 0.75 || got.HierarchyDerived {
		t.Fatalf("unexpected child suggestion: %#v", got)
	}
	derived := byTag[parent.ID]
	if derived == nil || !derived.HierarchyDerived {
		t.Fatalf("expected derived parent suggestion: %#v", derived)
	}
	if want := 0.75 * 0.9; derived.Confidence != want {
		t.Fatalf("expected decayed confidence %v, got %v", want, derived.Confidence)
	}
}

func TestGenerateTieAttributedToPrimary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	tag := testsupport.MustCreateTag(t, st, "dragon", store.CategoryCharacter, nil, nil)
	testsupport.MustUpsertMapping(t, st, "general", "dragon", testsupport.TagID(tag.ID), 1.0)

	orchestrator := newOrchestrator(cfg, st,
		staticCustom(predict.Prediction{TagID: tag.ID, Confidence: 0.90}),
		generalSource(func(context.Context, string) ([]predict.Prediction, error) {
			return []predict.Prediction{{Label: "dragon", Confidence: 0.90}}, nil
		}),
	)

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 4, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.SuggestionsCreated != 1 {
		t.Fatalf("expected a single merged row, got %d", result.SuggestionsCreated)
	}

	suggestions, _ := st.SuggestionsForImage(ctx, 4)
	if suggestions[0].Source != "custom" {
		t.Fatalf("tie must be attributed to the primary source, got %q", suggestions[0].Source)
	}
}

func TestGeneratePartialWhenOneSourceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	tag := testsupport.MustCreateTag(t, st, "sunset", store.CategoryTheme, nil, nil)

	orchestrator := newOrchestrator(cfg, st,
		staticCustom(predict.Prediction{TagID: tag.ID, Confidence: 0.85}),
		generalSource(func(context.Context, string) ([]predict.Prediction, error) {
			return nil, errors.New("connection refused")
		}),
	)

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 5, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Status != generate.StatusCompleted || !result.Partial {
		t.Fatalf("expected partial completion, got %#v", result)
	}
	if len(result.FailedSources) != 1 || result.FailedSources[0] != "general" {
		t.Fatalf("unexpected failed sources: %#v", result.FailedSources)
	}
	if result.SuggestionsCreated != 1 {
		t.Fatalf("surviving source output must persist, got %d", result.SuggestionsCreated)
	}

	runs, err := st.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if !runs[0].Partial || runs[0].Status != store.RunCompleted {
		t.Fatalf("run record must reflect partial completion: %#v", runs[0])
	}
}

func TestGenerateFailsAfterBoundedRetries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	var calls atomic.Int32
	failing := customSource(func(context.Context, string) ([]predict.Prediction, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})

	orchestrator := newOrchestrator(cfg, st, failing)

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 6, false)
	if err == nil {
		t.Fatal("expected failure when every source fails on every attempt")
	}
	if result.Status != generate.StatusFailed {
		t.Fatalf("expected failed status, got %#v", result)
	}
	if int(calls.Load()) != cfg.Workflow.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", cfg.Workflow.MaxAttempts, calls.Load())
	}

	runs, err := st.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if runs[0].Status != store.RunFailed || runs[0].Attempts != cfg.Workflow.MaxAttempts {
		t.Fatalf("unexpected failed run record: %#v", runs[0])
	}
}

func TestGenerateDropsCycledCandidateOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	healthy := testsupport.MustCreateTag(t, st, "castle", store.CategoryTheme, nil, nil)
	a := testsupport.MustCreateTag(t, st, "cycle-a", store.CategoryTheme, nil, nil)
	b := testsupport.MustCreateTag(t, st, "cycle-b", store.CategoryTheme, testsupport.TagID(a.ID), nil)
	if err := st.SetTagAlias(context.Background(), a.ID, &b.ID); err != nil {
		t.Fatalf("SetTagAlias failed: %v", err)
	}

	orchestrator := newOrchestrator(cfg, st, staticCustom(
		predict.Prediction{TagID: a.ID, Confidence: 0.9},
		predict.Prediction{TagID: healthy.ID, Confidence: 0.8},
	))

	ctx := context.Background()
	result, err := orchestrator.Generate(ctx, 7, false)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Status != generate.StatusCompleted || result.SuggestionsCreated != 1 {
		t.Fatalf("cycle must drop one candidate only: %#v", result)
	}

	suggestions, _ := st.SuggestionsForImage(ctx, 7)
	if suggestions[0].TagID != healthy.ID {
		t.Fatalf("expected healthy candidate to survive, got %#v", suggestions[0])
	}
}

func TestWorkerPoolProcessesEnqueuedImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	tag := testsupport.MustCreateTag(t, st, "harbor", store.CategoryTheme, nil, nil)

	orchestrator := newOrchestrator(cfg, st, staticCustom(predict.Prediction{TagID: tag.ID, Confidence: 0.9}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orchestrator.Start(ctx)
	defer orchestrator.Stop()

	if err := orchestrator.Enqueue(8, false); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		exists, err := st.HasSuggestions(context.Background(), 8)
		if err != nil {
			t.Fatalf("HasSuggestions failed: %v", err)
		}
		if exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("enqueued image was never processed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEnqueueRequiresRunningPool(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	orchestrator := newOrchestrator(cfg, st)

	if err := orchestrator.Enqueue(1, false); !errors.Is(err, generate.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}
