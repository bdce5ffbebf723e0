package eval

import (
	"fmt"
	"io"
	"math"

	"github.com/sjwhitworth/golearn/evaluation"
)

// precision is the rounding granularity of reported ratios.
const precision = 1000

// Report summarizes a test run for one positive class.
type Report struct {
	Count       int     `json:"count"`
	TP          int     `json:"tp"`
	TN          int     `json:"tn"`
	FP          int     `json:"fp"`
	FN          int     `json:"fn"`
	Accuracy    float64 `json:"accuracy"`
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	Specificity float64 `json:"specificity"`
}

// NewConfusionMatrix returns an empty matrix keyed by reference class, then
// predicted class.
func NewConfusionMatrix() evaluation.ConfusionMatrix {
	return make(evaluation.ConfusionMatrix)
}

// Record adds one prediction to cm.
func Record(cm evaluation.ConfusionMatrix, reference, predicted string) {
	row, ok := cm[reference]
	if !ok {
		row = make(map[string]int)
		cm[reference] = row
	}
	row[predicted]++
}

// NewReport computes one-vs-rest statistics for positive. Ratios with a zero
// denominator are NaN.
func NewReport(cm evaluation.ConfusionMatrix, positive string) Report {
	tp := evaluation.GetTruePositives(positive, cm)
	tn := evaluation.GetTrueNegatives(positive, cm)
	fp := evaluation.GetFalsePositives(positive, cm)
	fn := evaluation.GetFalseNegatives(positive, cm)

	count := 0
	for _, row := range cm {
		for _, n := range row {
			count += n
		}
	}

	r := Report{
		Count:       count,
		TP:          int(tp),
		TN:          int(tn),
		FP:          int(fp),
		FN:          int(fn),
		Accuracy:    math.NaN(),
		Precision:   round(evaluation.GetPrecision(positive, cm)),
		Recall:      round(evaluation.GetRecall(positive, cm)),
		Specificity: round(tn / (tn + fp)),
	}
	if count > 0 {
		r.Accuracy = round(evaluation.GetAccuracy(cm))
	}
	return r
}

// Write prints the report in a fixed, human-readable layout.
func (r Report) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"count: %d\nraw: TP=%d TN=%d FP=%d FN=%d\naccuracy: %v\nprecision: %v\nrecall: %v\nspecificity: %v\n",
		r.Count, r.TP, r.TN, r.FP, r.FN, r.Accuracy, r.Precision, r.Recall, r.Specificity)
	return err
}

func round(v float64) float64 {
	return math.Round(precision*v) / precision
}
