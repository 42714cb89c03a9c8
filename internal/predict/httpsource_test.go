package predict_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tagsmith/internal/predict"
)

func classifierStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPSourcePredict(t *testing.T) {
	server := classifierStub(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ImageRef string `json:"image_ref"`
			Model    string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.ImageRef != "images/42.jpg" || body.Model != "classifier" {
			t.Errorf("unexpected request body: %#v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]any{
				{"label": "grey wolf", "confidence": 0.92},
				{"label": "forest", "confidence": 0.61},
			},
		})
	})

	source := predict.NewHTTPSource(predict.HTTPConfig{
		Name:     "general",
		Version:  "v3",
		Kind:     predict.KindGeneral,
		Endpoint: server.URL,
		Model:    "classifier",
	})

	predictions, err := source.Predict(context.Background(), "images/42.jpg")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}
	if predictions[0].Label != "grey wolf" || predictions[0].Confidence != 0.92 {
		t.Fatalf("unexpected prediction: %#v", predictions[0])
	}
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := classifierStub(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]any{{"tag_id": 7, "confidence": 0.8}},
		})
	})

	source := predict.NewHTTPSource(predict.HTTPConfig{
		Name:     "custom",
		Kind:     predict.KindCustom,
		Endpoint: server.URL,
	},
		predict.WithRetryMaxAttempts(3),
		predict.WithSleeper(func(time.Duration) {}),
	)

	predictions, err := source.Predict(context.Background(), "images/1.jpg")
	if err != nil {
		t.Fatalf("Predict failed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if predictions[0].TagID != 7 {
		t.Fatalf("unexpected prediction: %#v", predictions[0])
	}
}

func TestHTTPSourceExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := classifierStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	source := predict.NewHTTPSource(predict.HTTPConfig{
		Name:     "custom",
		Kind:     predict.KindCustom,
		Endpoint: server.URL,
	},
		predict.WithRetryMaxAttempts(3),
		predict.WithSleeper(func(time.Duration) {}),
	)

	if _, err := source.Predict(context.Background(), "images/1.jpg"); err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := classifierStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad image ref", http.StatusBadRequest)
	})

	source := predict.NewHTTPSource(predict.HTTPConfig{
		Name:     "general",
		Kind:     predict.KindGeneral,
		Endpoint: server.URL,
	},
		predict.WithRetryMaxAttempts(3),
		predict.WithSleeper(func(time.Duration) {}),
	)

	if _, err := source.Predict(context.Background(), "images/1.jpg"); err == nil {
		t.Fatal("expected error for client failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls.Load())
	}
}

func TestHTTPSourceAPIError(t *testing.T) {
	server := classifierStub(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model not loaded"},
		})
	})

	source := predict.NewHTTPSource(predict.HTTPConfig{
		Name:     "general",
		Kind:     predict.KindGeneral,
		Endpoint: server.URL,
	}, predict.WithRetryMaxAttempts(1))

	if _, err := source.Predict(context.Background(), "images/1.jpg"); err == nil {
		t.Fatal("expected error for api failure payload")
	}
}
