package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// DefaultMaxCalls caps concurrent requests to the API.
const DefaultMaxCalls = 10

// Dataset files expected inside a suite directory.
const (
	TrainFile = "train.txt"
	TestFile  = "test.txt"
)

// NamespaceFor returns the namespace a suite is trained into.
func NamespaceFor(suite string) string {
	return "evalApi_" + suite
}

// Runner trains and tests datasets against the API with bounded concurrency.
type Runner struct {
	client   *Client
	maxCalls int
	logger   *slog.Logger
}

// NewRunner creates a runner. maxCalls below 1 falls back to DefaultMaxCalls.
func NewRunner(client *Client, maxCalls int, logger *slog.Logger) *Runner {
	if maxCalls < 1 {
		maxCalls = DefaultMaxCalls
	}
	return &Runner{client: client, maxCalls: maxCalls, logger: logger}
}

// TrainDataset trains every sample into namespace and returns the resulting
// training set. The first failed request cancels the rest.
func (r *Runner) TrainDataset(ctx context.Context, namespace string, samples []Sample) ([]domain.LabeledRow, error) {
	r.logger.Info("training", "namespace", namespace, "rows", len(samples))

	var trained atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxCalls)
	for _, s := range samples {
		if len(s.Features) == 0 {
			r.logger.Debug("skipping row without features", "class", s.Class)
			continue
		}
		g.Go(func() error {
			if err := r.client.Train(gctx, namespace, s.Class, s.Features); err != nil {
				return fmt.Errorf("train %q: %w", s.Class, err)
			}
			trained.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("done training", "namespace", namespace, "rows", trained.Load())
	return r.client.Dump(ctx, namespace)
}

// TestDataset classifies every sample and scores the predictions with
// positive as the positive class. Rows the server declines to classify are
// left out of the report.
func (r *Runner) TestDataset(ctx context.Context, namespace, positive string, samples []Sample) (Report, error) {
	r.logger.Info("testing", "namespace", namespace, "rows", len(samples))

	var mu sync.Mutex
	cm := NewConfusionMatrix()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxCalls)
	for _, s := range samples {
		if len(s.Features) == 0 {
			continue
		}
		g.Go(func() error {
			label, ok, err := r.client.Classify(gctx, namespace, s.Features)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			if !ok {
				return nil
			}
			mu.Lock()
			Record(cm, s.Class, label)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	r.logger.Info("done testing", "namespace", namespace)
	return NewReport(cm, positive), nil
}
