package svm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// --- mock classifier ---

type mockClassifier struct {
	mu         sync.Mutex
	trainErr   error
	predictErr error
	predictID  int
	panicOn    string
	trained    [][]domain.Row
	predicted  [][]int
}

func (m *mockClassifier) Train(_ context.Context, rows []domain.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn == "train" {
		panic("native crash")
	}
	m.trained = append(m.trained, rows)
	return m.trainErr
}

func (m *mockClassifier) Predict(_ context.Context, features []int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn == "predict" {
		panic("native crash")
	}
	m.predicted = append(m.predicted, features)
	return m.predictID, m.predictErr
}

func newTestAdapter() (*Adapter, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewAdapter(domain.NewStore(nil), slog.Default(), metrics), metrics
}

func attrs(kv ...any) domain.Features {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return domain.FeatureMap(m)
}

// --- tests ---

func TestAdapter_TrainValidation(t *testing.T) {
	a, metrics := newTestAdapter()
	h := NewHandle(&mockClassifier{})
	ctx := context.Background()

	tests := []struct {
		name           string
		handle         *Handle
		namespace      string
		classification string
		features       domain.Features
	}{
		{"nil handle", nil, "ns", "lbl", attrs("a", 1)},
		{"handle without classifier", &Handle{}, "ns", "lbl", attrs("a", 1)},
		{"missing namespace", h, "", "lbl", attrs("a", 1)},
		{"empty classification", h, "ns", "", domain.FeatureMap(map[string]any{})},
		{"empty object", h, "ns", "lbl", domain.FeatureMap(map[string]any{})},
		{"empty array", h, "ns", "lbl", domain.FeatureList()},
		{"absent features", h, "ns", "lbl", domain.Features{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset, err := a.Train(ctx, tt.handle, tt.namespace, tt.classification, tt.features)
			require.ErrorIs(t, err, domain.ErrBadArguments)
			assert.Nil(t, dataset)
		})
	}

	scalar, err := domain.ParseFeatures([]byte(`"x"`))
	require.NoError(t, err)
	_, err = a.Train(ctx, h, "ns", "lbl", scalar)
	require.ErrorIs(t, err, domain.ErrBadArguments)

	_, err = a.Dump(ctx, "ns")
	assert.ErrorIs(t, err, domain.ErrNamespaceNotTrained, "rejected input must not create the namespace")
	assert.InDelta(t, float64(len(tests)+1), testutil.ToFloat64(metrics.TrainRequests.WithLabelValues("bad_arguments")), 0)
}

func TestAdapter_TrainRetrainsFromFullDataset(t *testing.T) {
	a, _ := newTestAdapter()
	mc := &mockClassifier{}
	h := NewHandle(mc)
	ctx := context.Background()

	_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
	require.NoError(t, err)
	dataset, err := a.Train(ctx, h, "ns", "y", attrs("a", 2))
	require.NoError(t, err)

	require.Len(t, mc.trained, 2)
	assert.Len(t, mc.trained[0], 1)
	assert.Equal(t, []domain.Row{
		{Features: []int{0}, Class: 0},
		{Features: []int{1}, Class: 1},
	}, mc.trained[1])
	assert.Equal(t, []domain.LabeledRow{
		{Features: []string{"a=1"}, Classification: "x"},
		{Features: []string{"a=2"}, Classification: "y"},
	}, dataset)
}

func TestAdapter_TrainFailureSurfacesButKeepsDictionary(t *testing.T) {
	a, metrics := newTestAdapter()
	h := NewHandle(&mockClassifier{trainErr: errors.New("solver diverged")})
	ctx := context.Background()

	dataset, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
	require.ErrorIs(t, err, domain.ErrClassifierOperation)
	assert.Contains(t, err.Error(), "solver diverged")
	assert.Nil(t, dataset)

	dumped, err := a.Dump(ctx, "ns")
	require.NoError(t, err)
	assert.Len(t, dumped, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TrainRequests.WithLabelValues("classifier_error")), 0)
}

// togglePersister fails every save while fail is set.
type togglePersister struct {
	fail bool
}

func (p *togglePersister) LoadDictionaries(context.Context) (map[string]*domain.Dictionary, error) {
	return nil, nil
}

func (p *togglePersister) SaveDictionary(context.Context, string, *domain.Dictionary) error {
	if p.fail {
		return errors.New("disk full")
	}
	return nil
}

func TestAdapter_PersistFailureLeavesClassifierOnCommittedRows(t *testing.T) {
	persister := &togglePersister{}
	metrics := observability.NewMetricsForTesting()
	a := NewAdapter(domain.NewStore(persister), slog.Default(), metrics)
	mc := &mockClassifier{predictID: 0}
	h := NewHandle(mc)
	ctx := context.Background()

	_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
	require.NoError(t, err)

	persister.fail = true
	_, err = a.Train(ctx, h, "ns", "y", attrs("a", 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotErrorIs(t, err, domain.ErrClassifierOperation)

	require.Len(t, mc.trained, 1, "the classifier must not see rows that were never committed")
	assert.Equal(t, []domain.Row{{Features: []int{0}, Class: 0}}, mc.trained[0])

	dumped, err := a.Dump(ctx, "ns")
	require.NoError(t, err)
	assert.Equal(t, []domain.LabeledRow{{Features: []string{"a=1"}, Classification: "x"}}, dumped)

	label, err := a.Classify(ctx, h, "ns", attrs("a", 2))
	require.NoError(t, err)
	assert.Equal(t, "x", label)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TrainRequests.WithLabelValues("error")), 0)
}

func TestAdapter_TrainPanicIsRecovered(t *testing.T) {
	a, _ := newTestAdapter()
	h := NewHandle(&mockClassifier{panicOn: "train"})

	_, err := a.Train(context.Background(), h, "ns", "x", attrs("a", 1))
	require.ErrorIs(t, err, domain.ErrClassifierOperation)
	assert.Contains(t, err.Error(), "panicked")
}

func TestAdapter_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("untrained namespace", func(t *testing.T) {
		a, metrics := newTestAdapter()
		_, err := a.Classify(ctx, NewHandle(&mockClassifier{}), "untrained-namespace", attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrNamespaceNotTrained)
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.ClassifyRequests.WithLabelValues("not_trained")), 0)
	})

	t.Run("empty features", func(t *testing.T) {
		a, _ := newTestAdapter()
		label, err := a.Classify(ctx, NewHandle(&mockClassifier{}), "untrained-namespace", domain.FeatureMap(nil))
		require.NoError(t, err)
		assert.Empty(t, label)
	})

	t.Run("structurally invalid", func(t *testing.T) {
		a, _ := newTestAdapter()
		scalar, err := domain.ParseFeatures([]byte(`42`))
		require.NoError(t, err)

		_, err = a.Classify(ctx, NewHandle(&mockClassifier{}), "ns", scalar)
		require.ErrorIs(t, err, domain.ErrBadArguments)

		_, err = a.Classify(ctx, nil, "ns", attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrBadArguments)
	})

	t.Run("unseen tokens map to absent index", func(t *testing.T) {
		a, _ := newTestAdapter()
		mc := &mockClassifier{predictID: 0}
		h := NewHandle(mc)
		_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1, "b", 1))
		require.NoError(t, err)

		label, err := a.Classify(ctx, h, "ns", attrs("a", 1, "b", 9))
		require.NoError(t, err)
		assert.Equal(t, "x", label)
		assert.Equal(t, [][]int{{0, domain.AbsentIndex}}, mc.predicted)

		dumped, err := a.Dump(ctx, "ns")
		require.NoError(t, err)
		assert.Equal(t, []domain.LabeledRow{{Features: []string{"a=1", "b=1"}, Classification: "x"}}, dumped)
	})

	t.Run("predict failure", func(t *testing.T) {
		a, _ := newTestAdapter()
		h := NewHandle(&mockClassifier{predictErr: errors.New("no model")})
		_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
		require.NoError(t, err)

		_, err = a.Classify(ctx, h, "ns", attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrClassifierOperation)
	})

	t.Run("predict panic", func(t *testing.T) {
		a, _ := newTestAdapter()
		mc := &mockClassifier{}
		h := NewHandle(mc)
		_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
		require.NoError(t, err)

		mc.panicOn = "predict"
		_, err = a.Classify(ctx, h, "ns", attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrClassifierOperation)
	})

	t.Run("class id outside dictionary", func(t *testing.T) {
		a, _ := newTestAdapter()
		h := NewHandle(&mockClassifier{predictID: 7})
		_, err := a.Train(ctx, h, "ns", "x", attrs("a", 1))
		require.NoError(t, err)

		_, err = a.Classify(ctx, h, "ns", attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrClassifierOperation)
		assert.Contains(t, err.Error(), "class id 7")
	})
}

func TestAdapter_DumpUnknownNamespace(t *testing.T) {
	a, _ := newTestAdapter()
	_, err := a.Dump(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNamespaceNotTrained)
}

func TestCreate_NeverFails(t *testing.T) {
	for _, opts := range []domain.Options{
		nil,
		{},
		{"svmType": "C_SVC", "kernelType": "RBF"},
		{"neighbours": "lots", "distance": 12},
		{"neighbours": 3, "distance": "cosine", "algorithm": "kdtree"},
	} {
		h := Create(opts, slog.Default())
		require.NotNil(t, h)
		assert.True(t, h.valid())
	}
}
