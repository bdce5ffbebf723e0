package domain

import "context"

// Options configures a classifier. Keys are passed through to the
// implementation, which falls back to its defaults for anything it does not
// understand.
type Options map[string]any

// Classifier is the external training/prediction capability wrapped by the
// adapter. Implementations must be safe for concurrent use.
type Classifier interface {
	// Train rebuilds the model from the full set of rows.
	Train(ctx context.Context, rows []Row) error

	// Predict returns the class id for a feature vector.
	Predict(ctx context.Context, features []int) (int, error)
}
