package domain

import (
	"context"
	"time"
)

// RawMessage is an unprocessed message from the training topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// TrainingObservation is a labeled observation submitted for training.
type TrainingObservation struct {
	Namespace      string   `json:"namespace"`
	Classification string   `json:"classification"`
	Features       Features `json:"features"`
}

// Training event statuses.
const (
	// StatusTrained means the observation was recorded and the classifier
	// retrained on it.
	StatusTrained = "trained"
	// StatusRecorded means the observation was recorded in the dictionary
	// but the classifier failed to retrain.
	StatusRecorded = "recorded"
)

// TrainingEvent records an observation that has been applied to a namespace.
type TrainingEvent struct {
	Namespace       string    `json:"namespace"`
	Classification  string    `json:"classification"`
	Features        []string  `json:"features"`
	DatasetSize     int       `json:"dataset_size"`
	Status          string    `json:"status"`
	ClassifierError string    `json:"classifier_error,omitempty"`
	TrainedAt       time.Time `json:"trained_at"`
}
