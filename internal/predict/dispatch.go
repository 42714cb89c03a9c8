package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tagsmith/internal/config"
	"tagsmith/internal/logging"
	"tagsmith/internal/services"
)

// Outcome is the result of asking one source about one image. Err is set when
// the source failed or timed out; the rest of the fan-out is unaffected.
type Outcome struct {
	Source      string
	Version     string
	Kind        Kind
	Predictions []Prediction
	Err         error
}

// Dispatcher fans one image out to every source concurrently with a
// per-source deadline.
type Dispatcher struct {
	logger   *slog.Logger
	timeouts map[string]time.Duration
	fallback time.Duration
}

// NewDispatcher derives per-source timeouts from configuration.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) *Dispatcher {
	timeouts := make(map[string]time.Duration, len(cfg.Sources))
	for _, source := range cfg.Sources {
		timeouts[source.Name] = time.Duration(cfg.SourceTimeoutSeconds(source)) * time.Second
	}
	return &Dispatcher{
		logger:   logging.NewComponentLogger(logger, "predict"),
		timeouts: timeouts,
		fallback: time.Duration(cfg.Workflow.SourceTimeoutSeconds) * time.Second,
	}
}

// Dispatch queries every source concurrently and joins the results. A source
// exceeding its deadline is recorded as a timeout outcome; the in-flight call
// is not cancelled, its late result is simply discarded.
func (d *Dispatcher) Dispatch(ctx context.Context, sources []Source, imageRef string) []Outcome {
	outcomes := make([]Outcome, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			outcomes[i] = d.dispatchOne(ctx, source, imageRef)
		}(i, source)
	}
	wg.Wait()
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, source Source, imageRef string) Outcome {
	outcome := Outcome{
		Source:  source.Name(),
		Version: source.Version(),
		Kind:    source.Kind(),
	}

	type result struct {
		predictions []Prediction
		err         error
	}
	done := make(chan result, 1)
	go func() {
		predictions, err := source.Predict(ctx, imageRef)
		done <- result{predictions: predictions, err: err}
	}()

	timer := time.NewTimer(d.timeoutFor(source.Name()))
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			outcome.Err = services.Wrap(services.ErrExternalService, "predict", "dispatch",
				fmt.Sprintf("source %q failed", source.Name()), res.err)
		} else {
			outcome.Predictions = res.predictions
		}
	case <-timer.C:
		outcome.Err = services.Wrap(services.ErrTimeout, "predict", "dispatch",
			fmt.Sprintf("source %q exceeded its deadline", source.Name()), nil)
	case <-ctx.Done():
		outcome.Err = services.Wrap(services.ErrTransient, "predict", "dispatch",
			fmt.Sprintf("dispatch for source %q interrupted", source.Name()), ctx.Err())
	}

	if outcome.Err != nil {
		d.logger.Warn("source dispatch failed",
			logging.String(logging.FieldSource, source.Name()),
			logging.Error(outcome.Err),
		)
	}
	return outcome
}

func (d *Dispatcher) timeoutFor(name string) time.Duration {
	if timeout, ok := d.timeouts[name]; ok && timeout > 0 {
		return timeout
	}
	if d.fallback > 0 {
		return d.fallback
	}
	return defaultHTTPTimeout
}
