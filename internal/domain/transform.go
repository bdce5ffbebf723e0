package domain

import (
	"encoding/json"
	"fmt"
)

// ParseTrainingObservation decodes a raw topic message into an observation.
// Structural checks on the label and features are left to the adapter.
func ParseTrainingObservation(raw RawMessage) (TrainingObservation, error) {
	var obs TrainingObservation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return TrainingObservation{}, fmt.Errorf("%w: unmarshal training observation: %v", ErrBadArguments, err)
	}
	if obs.Namespace == "" {
		return TrainingObservation{}, fmt.Errorf("%w: missing namespace", ErrBadArguments)
	}
	return obs, nil
}

// NewTrainingEvent stamps an applied observation with the current time.
func NewTrainingEvent(obs TrainingObservation, dataset []LabeledRow) TrainingEvent {
	return TrainingEvent{
		Namespace:      obs.Namespace,
		Classification: obs.Classification,
		Features:       obs.Features.Tokens(),
		DatasetSize:    len(dataset),
		Status:         StatusTrained,
		TrainedAt:      clock.Now().UTC(),
	}
}

// NewRecordedEvent describes an observation that reached the dictionary while
// the classifier failed to retrain on it.
func NewRecordedEvent(obs TrainingObservation, dataset []LabeledRow, trainErr error) TrainingEvent {
	e := NewTrainingEvent(obs, dataset)
	e.Status = StatusRecorded
	e.ClassifierError = trainErr.Error()
	return e
}
