package svm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// Adapter trains and queries classifier handles against the namespace store.
type Adapter struct {
	store   *domain.Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAdapter creates an adapter over store.
func NewAdapter(store *domain.Store, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	return &Adapter{store: store, logger: logger, metrics: metrics}
}

// Train records a labeled observation in the namespace dictionary, retrains
// h from the full dataset and returns that dataset. The dictionary update
// stays committed when the classifier itself fails.
func (a *Adapter) Train(ctx context.Context, h *Handle, namespace, classification string, features domain.Features) ([]domain.LabeledRow, error) {
	if err := validateTrain(h, namespace, classification, features); err != nil {
		a.metrics.TrainRequests.WithLabelValues("bad_arguments").Inc()
		return nil, err
	}

	tokens := features.Tokens()

	var (
		dataset  []domain.LabeledRow
		trainErr error
	)
	observe := func(d *domain.Dictionary) error {
		d.Observe(classification, tokens)

		var err error
		dataset, err = d.Dataset()
		return err
	}
	// The classifier only ever sees rows the store has committed.
	retrain := func(d *domain.Dictionary) {
		start := time.Now()
		trainErr = h.Train(ctx, slices.Clone(d.Rows))
		a.metrics.ClassifierTrainDuration.Observe(time.Since(start).Seconds())
	}
	err := a.store.UpdateThen(ctx, namespace, observe, retrain)
	if err != nil {
		a.metrics.TrainRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("train namespace %q: %w", namespace, err)
	}

	a.metrics.DatasetRows.WithLabelValues(namespace).Set(float64(len(dataset)))
	a.metrics.Namespaces.Set(float64(len(a.store.Namespaces())))

	if trainErr != nil {
		a.logger.Warn("classifier train failed",
			"namespace", namespace,
			"rows", len(dataset),
			"error", trainErr,
		)
		a.metrics.TrainRequests.WithLabelValues("classifier_error").Inc()
		return nil, fmt.Errorf("%w: train namespace %q: %v", domain.ErrClassifierOperation, namespace, trainErr)
	}

	a.metrics.TrainRequests.WithLabelValues("success").Inc()
	a.logger.Debug("namespace trained",
		"namespace", namespace,
		"classification", classification,
		"rows", len(dataset),
	)
	return dataset, nil
}

// Classify predicts a label for features in a trained namespace. Empty
// features yield an empty label and no error. The dictionary is never
// modified; tokens it has not seen map to domain.AbsentIndex.
func (a *Adapter) Classify(ctx context.Context, h *Handle, namespace string, features domain.Features) (string, error) {
	if !h.valid() || !features.Valid() {
		a.metrics.ClassifyRequests.WithLabelValues("bad_arguments").Inc()
		return "", fmt.Errorf("%w: classify needs a classifier and an object or array of features", domain.ErrBadArguments)
	}
	if features.Empty() {
		a.metrics.ClassifyRequests.WithLabelValues("empty").Inc()
		a.logger.Debug("nothing to classify", "namespace", namespace)
		return "", nil
	}

	tokens := features.Tokens()

	var label string
	err := a.store.View(ctx, namespace, func(d *domain.Dictionary) error {
		id, err := h.Predict(ctx, d.LookupRow(tokens))
		if err != nil {
			return fmt.Errorf("%w: predict: %v", domain.ErrClassifierOperation, err)
		}
		var ok bool
		if label, ok = d.Label(id); !ok {
			return fmt.Errorf("%w: predicted class id %d is not in the dictionary", domain.ErrClassifierOperation, id)
		}
		return nil
	})
	if err != nil {
		a.metrics.ClassifyRequests.WithLabelValues(outcome(err)).Inc()
		if errors.Is(err, domain.ErrClassifierOperation) {
			a.logger.Warn("classify failed", "namespace", namespace, "error", err)
		}
		return "", err
	}

	a.metrics.ClassifyRequests.WithLabelValues("success").Inc()
	return label, nil
}

// Dump returns every row of a trained namespace in labeled form.
func (a *Adapter) Dump(ctx context.Context, namespace string) ([]domain.LabeledRow, error) {
	var dataset []domain.LabeledRow
	err := a.store.View(ctx, namespace, func(d *domain.Dictionary) error {
		var err error
		dataset, err = d.Dataset()
		if err != nil {
			return fmt.Errorf("dump namespace %q: %w", namespace, err)
		}
		return nil
	})
	return dataset, err
}

func validateTrain(h *Handle, namespace, classification string, features domain.Features) error {
	switch {
	case !h.valid():
		return fmt.Errorf("%w: no classifier", domain.ErrBadArguments)
	case namespace == "":
		return fmt.Errorf("%w: missing namespace", domain.ErrBadArguments)
	case classification == "":
		return fmt.Errorf("%w: missing classification", domain.ErrBadArguments)
	case !features.Valid() || features.Empty():
		return fmt.Errorf("%w: features must be a non-empty object or array", domain.ErrBadArguments)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrBadArguments):
		return "bad_arguments"
	case errors.Is(err, domain.ErrNamespaceNotTrained):
		return "not_trained"
	case errors.Is(err, domain.ErrClassifierOperation):
		return "classifier_error"
	default:
		return "error"
	}
}
