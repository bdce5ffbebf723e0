// Package svm wraps an external classifier with the per-namespace feature
// dictionaries, translating raw observations to integer rows on the way in
// and class ids back to labels on the way out.
package svm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/gear-smarts-service/internal/adapter/golearn"
	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Handle is a configured classifier instance. It always exposes Train and
// Predict, whatever options it was created with.
type Handle struct {
	classifier domain.Classifier
}

// NewHandle wraps an existing classifier.
func NewHandle(c domain.Classifier) *Handle {
	return &Handle{classifier: c}
}

// Create builds a handle from opts. It never fails: empty or unusable options
// are logged and the classifier defaults apply.
func Create(opts domain.Options, logger *slog.Logger) *Handle {
	if len(opts) == 0 {
		logger.Warn("bad options, using classifier defaults")
	}

	settings, ignored := golearn.ParseOptions(opts)
	if len(ignored) > 0 {
		logger.Warn("ignoring classifier options", "keys", ignored)
	}

	return NewHandle(golearn.New(settings, logger))
}

func (h *Handle) valid() bool {
	return h != nil && h.classifier != nil
}

// Train retrains the wrapped classifier, converting a panic into an error.
func (h *Handle) Train(ctx context.Context, rows []domain.Row) (err error) {
	defer recoverInto(&err, "train")
	return h.classifier.Train(ctx, rows)
}

// Predict queries the wrapped classifier, converting a panic into an error.
func (h *Handle) Predict(ctx context.Context, features []int) (id int, err error) {
	defer recoverInto(&err, "predict")
	return h.classifier.Predict(ctx, features)
}

func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("classifier %s panicked: %v", op, r)
	}
}
