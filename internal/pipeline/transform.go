package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Trainer applies labeled observations to namespaces. Implemented by svm.Service.
type Trainer interface {
	Train(ctx context.Context, namespace, classification string, features domain.Features) ([]domain.LabeledRow, error)
	Dump(ctx context.Context, namespace string) ([]domain.LabeledRow, error)
}

// TrainingTransformer implements Transformer by training on each observation.
type TrainingTransformer struct {
	trainer Trainer
	logger  *slog.Logger
}

// NewTransformer creates a TrainingTransformer.
func NewTransformer(trainer Trainer, logger *slog.Logger) *TrainingTransformer {
	return &TrainingTransformer{
		trainer: trainer,
		logger:  logger,
	}
}

// Transform parses and trains one observation. When the classifier fails the
// observation is already in the dictionary, so a recorded event is returned
// together with the error.
func (t *TrainingTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.TrainingEvent, error) {
	obs, err := domain.ParseTrainingObservation(raw)
	if err != nil {
		return domain.TrainingEvent{}, err
	}

	dataset, err := t.trainer.Train(ctx, obs.Namespace, obs.Classification, obs.Features)
	if errors.Is(err, domain.ErrClassifierOperation) {
		recorded, dumpErr := t.trainer.Dump(ctx, obs.Namespace)
		if dumpErr != nil {
			t.logger.Warn("dump after classifier failure", "namespace", obs.Namespace, "error", dumpErr)
		}
		return domain.NewRecordedEvent(obs, recorded, err), err
	}
	if err != nil {
		return domain.TrainingEvent{}, err
	}

	t.logger.Debug("observation applied",
		"namespace", obs.Namespace,
		"classification", obs.Classification,
		"dataset_size", len(dataset),
	)
	return domain.NewTrainingEvent(obs, dataset), nil
}
