package eval

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	cm := NewConfusionMatrix()
	for range 2 {
		Record(cm, "1", "1")
	}
	Record(cm, "1", "0")
	for range 3 {
		Record(cm, "0", "0")
	}
	Record(cm, "0", "1")

	r := NewReport(cm, "1")

	assert.Equal(t, Report{
		Count:       7,
		TP:          2,
		TN:          3,
		FP:          1,
		FN:          1,
		Accuracy:    0.714,
		Precision:   0.667,
		Recall:      0.667,
		Specificity: 0.75,
	}, r)
}

func TestNewReport_EmptyMatrix(t *testing.T) {
	r := NewReport(NewConfusionMatrix(), "1")

	assert.Zero(t, r.Count)
	assert.True(t, math.IsNaN(r.Accuracy))
	assert.True(t, math.IsNaN(r.Specificity))
}

func TestReport_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report{Count: 4, TP: 2, TN: 2, Accuracy: 1, Precision: 1, Recall: 1, Specificity: 1}.Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "count: 4\n")
	assert.Contains(t, out, "raw: TP=2 TN=2 FP=0 FN=0\n")
	assert.Contains(t, out, "specificity: 1\n")
}
