package predict_test

import (
	"context"
	"errors"
	"testing"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/predict"
	"tagsmith/internal/services"
	"tagsmith/internal/store"
)

func dispatchConfig() *config.Config {
	cfg := config.Default()
	cfg.Sources = []config.Source{
		{Name: "custom", Kind: "custom", TimeoutSeconds: 1},
		{Name: "general", Kind: "general", TimeoutSeconds: 1},
	}
	return &cfg
}

func TestDispatchJoinsAllSources(t *testing.T) {
	dispatcher := predict.NewDispatcher(dispatchConfig(), logging.NewNop())

	sources := []predict.Source{
		predict.SourceFunc{
			SourceName: "custom", SourceVersion: "v1", SourceKind: predict.KindCustom,
			Fn: func(context.Context, string) ([]predict.Prediction, error) {
				return []predict.Prediction{{TagID: 10, Confidence: 0.8}}, nil
			},
		},
		predict.SourceFunc{
			SourceName: "general", SourceVersion: "v2", SourceKind: predict.KindGeneral,
			Fn: func(context.Context, string) ([]predict.Prediction, error) {
				return []predict.Prediction{{Label: "forest", Confidence: 0.7}}, nil
			},
		},
	}

	outcomes := dispatcher.Dispatch(context.Background(), sources, "images/9.jpg")
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil || outcomes[1].Err != nil {
		t.Fatalf("unexpected errors: %v %v", outcomes[0].Err, outcomes[1].Err)
	}
	if outcomes[0].Source != "custom" || outcomes[0].Predictions[0].TagID != 10 {
		t.Fatalf("unexpected custom outcome: %#v", outcomes[0])
	}
	if outcomes[1].Kind != predict.KindGeneral || outcomes[1].Predictions[0].Label != "forest" {
		t.Fatalf("unexpected general outcome: %#v", outcomes[1])
	}
}

func TestDispatchTimeoutDegradesOneSource(t *testing.T) {
	dispatcher := predict.NewDispatcher(dispatchConfig(), logging.NewNop())

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	sources := []predict.Source{
		predict.SourceFunc{
			SourceName: "custom", SourceKind: predict.KindCustom,
			Fn: func(context.Context, string) ([]predict.Prediction, error) {
				<-block
				return nil, nil
			},
		},
		predict.SourceFunc{
			SourceName: "general", SourceKind: predict.KindGeneral,
			Fn: func(context.Context, string) ([]predict.Prediction, error) {
				return []predict.Prediction{{Label: "castle", Confidence: 0.9}}, nil
			},
		},
	}

	outcomes := dispatcher.Dispatch(context.Background(), sources, "images/9.jpg")
	if outcomes[0].Err == nil {
		t.Fatal("expected timeout outcome for blocked source")
	}
	if !errors.Is(outcomes[0].Err, services.ErrTimeout) {
		t.Fatalf("expected timeout classification, got %v", outcomes[0].Err)
	}
	if outcomes[1].Err != nil || len(outcomes[1].Predictions) != 1 {
		t.Fatalf("healthy source must be unaffected: %#v", outcomes[1])
	}
}

func TestDispatchClassifiesSourceFailure(t *testing.T) {
	dispatcher := predict.NewDispatcher(dispatchConfig(), logging.NewNop())

	sources := []predict.Source{
		predict.SourceFunc{
			SourceName: "general", SourceKind: predict.KindGeneral,
			Fn: func(context.Context, string) ([]predict.Prediction, error) {
				return nil, errors.New("connection refused")
			},
		},
	}

	outcomes := dispatcher.Dispatch(context.Background(), sources, "images/9.jpg")
	if !errors.Is(outcomes[0].Err, services.ErrExternalService) {
		t.Fatalf("expected external service classification, got %v", outcomes[0].Err)
	}
}

type fakeRegistry struct {
	active map[string]*store.ModelVersion
}

func (f *fakeRegistry) ActiveModelVersion(_ context.Context, modelName string) (*store.ModelVersion, error) {
	return f.active[modelName], nil
}

func TestCatalogReloadSwapsVersions(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.Source{
		{Name: "general", Kind: "general", Endpoint: "http://localhost:9", Model: "general-classifier", Version: "v1"},
	}
	registry := &fakeRegistry{active: map[string]*store.ModelVersion{}}
	catalog := predict.NewCatalog(&cfg, registry, logging.NewNop())

	if err := catalog.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	before := catalog.Sources()
	if len(before) != 1 || before[0].Version() != "v1" {
		t.Fatalf("expected configured version before activation, got %#v", before)
	}

	// Activating a model version changes what the next reload serves, while
	// the earlier snapshot keeps its original version.
	registry.active["general-classifier"] = &store.ModelVersion{Version: "v2", Active: true}
	if err := catalog.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	after := catalog.Sources()
	if after[0].Version() != "v2" {
		t.Fatalf("expected active registry version, got %q", after[0].Version())
	}
	if before[0].Version() != "v1" {
		t.Fatal("existing snapshot must be unaffected by reload")
	}
}
