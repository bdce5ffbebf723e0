package svm

import (
	"context"
	"log/slog"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

func newTestService(store *domain.Store) *Service {
	return NewService(store, domain.Options{"neighbours": 1}, slog.Default(), observability.NewMetricsForTesting())
}

func TestService_XOR(t *testing.T) {
	s := newTestService(domain.NewStore(nil))
	ctx := context.Background()

	cases := []struct {
		features domain.Features
		label    string
	}{
		{attrs("a", 0, "b", 0), "0"},
		{attrs("a", 0, "b", 1), "1"},
		{attrs("a", 1, "b", 0), "1"},
		{attrs("a", 1, "b", 1), "0"},
	}
	for _, c := range cases {
		_, err := s.Train(ctx, "xor", c.label, c.features)
		require.NoError(t, err)
	}

	dataset, err := s.Dump(ctx, "xor")
	require.NoError(t, err)
	require.Len(t, dataset, 4)
	for i, c := range cases {
		assert.Equal(t, c.label, dataset[i].Classification)
		assert.Equal(t, c.features.Tokens(), dataset[i].Features)
	}

	for _, c := range cases {
		got, err := s.Classify(ctx, "xor", c.features)
		require.NoError(t, err)
		assert.Equal(t, c.label, got, "features %v", c.features.Tokens())
	}

	got, err := s.Classify(ctx, "xor", attrs("a", 0, "b", 0))
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestService_BadArguments(t *testing.T) {
	s := newTestService(domain.NewStore(nil))
	ctx := context.Background()

	_, err := s.Train(ctx, "ns", "", domain.FeatureMap(map[string]any{}))
	require.ErrorIs(t, err, domain.ErrBadArguments)

	_, err = s.Train(ctx, "ns", "lbl", domain.FeatureMap(map[string]any{}))
	require.ErrorIs(t, err, domain.ErrBadArguments)

	_, err = s.Classify(ctx, "untrained-namespace", attrs("a", 1))
	require.ErrorIs(t, err, domain.ErrNamespaceNotTrained)
}

func TestService_Relabel(t *testing.T) {
	s := newTestService(domain.NewStore(nil))
	ctx := context.Background()

	_, err := s.Train(ctx, "ns", "x", attrs("a", 1, "b", 1))
	require.NoError(t, err)
	dataset, err := s.Train(ctx, "ns", "y", attrs("a", 1, "b", 1))
	require.NoError(t, err)

	assert.Equal(t, []domain.LabeledRow{{Features: []string{"a=1", "b=1"}, Classification: "y"}}, dataset)

	got, err := s.Classify(ctx, "ns", attrs("a", 1, "b", 1))
	require.NoError(t, err)
	assert.Equal(t, "y", got)
}

func TestService_NamespaceIsolation(t *testing.T) {
	s := newTestService(domain.NewStore(nil))
	ctx := context.Background()

	_, err := s.Train(ctx, "b", "cold", domain.FeatureList("snow"))
	require.NoError(t, err)
	before, err := s.Dump(ctx, "b")
	require.NoError(t, err)

	_, err = s.Train(ctx, "a", "hot", domain.FeatureList("snow"))
	require.NoError(t, err)

	after, err := s.Dump(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, err := s.Classify(ctx, "b", domain.FeatureList("snow"))
	require.NoError(t, err)
	assert.Equal(t, "cold", got)
}

func TestService_RestoresHandleFromStore(t *testing.T) {
	store := domain.NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "ns", func(d *domain.Dictionary) error {
		d.Observe("warm", []string{"temp=70"})
		d.Observe("cold", []string{"temp=20"})
		return nil
	}))

	s := newTestService(store)

	got, err := s.Classify(ctx, "ns", domain.FeatureMap(map[string]any{"temp": 20}))
	require.NoError(t, err)
	assert.Equal(t, "cold", got)
}

func TestService_HandleFactory(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	mc := &mockClassifier{}
	s := NewService(domain.NewStore(nil), nil, slog.Default(), observability.NewMetricsForTesting(),
		WithHandleFactory(func(namespace string) *Handle {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, namespace)
			return NewHandle(mc)
		}),
	)
	ctx := context.Background()

	_, err := s.Train(ctx, "ns", "x", domain.FeatureList("a"))
	require.NoError(t, err)
	_, err = s.Train(ctx, "ns", "y", domain.FeatureList("b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ns"}, calls)
	assert.Len(t, mc.trained, 2)
}

func TestService_CheckReadiness(t *testing.T) {
	store := domain.NewStore(nil)
	s := newTestService(store)

	require.Error(t, s.CheckReadiness(context.Background()))

	require.NoError(t, store.Load(context.Background()))
	require.NoError(t, s.CheckReadiness(context.Background()))
}

func TestService_ConcurrentTrain(t *testing.T) {
	s := newTestService(domain.NewStore(nil))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			label := "even"
			if i%2 == 1 {
				label = "odd"
			}
			_, _ = s.Train(ctx, "ns", label, domain.FeatureMap(map[string]any{"n": i}))
		}(i)
	}
	wg.Wait()

	dataset, err := s.Dump(ctx, "ns")
	require.NoError(t, err)
	assert.Len(t, dataset, 20)
}

func TestService_ClassifyUntrainedCreatesNoHandle(t *testing.T) {
	var factoryCalls int
	s := NewService(domain.NewStore(nil), nil, slog.Default(), observability.NewMetricsForTesting(),
		WithHandleFactory(func(string) *Handle {
			factoryCalls++
			return NewHandle(&mockClassifier{})
		}),
	)
	ctx := context.Background()

	for i := range 1000 {
		_, err := s.Classify(ctx, fmt.Sprintf("ns-%d", i), attrs("a", 1))
		require.ErrorIs(t, err, domain.ErrNamespaceNotTrained)
	}

	assert.Empty(t, s.handles)
	assert.Zero(t, factoryCalls)
}

// blockingClassifier holds Train until release is closed.
type blockingClassifier struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingClassifier) Train(context.Context, []domain.Row) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

func (b *blockingClassifier) Predict(context.Context, []int) (int, error) {
	return 0, nil
}

func TestService_RestoreDoesNotBlockOtherNamespaces(t *testing.T) {
	store := domain.NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Update(ctx, "slow", func(d *domain.Dictionary) error {
		d.Observe("x", []string{"a"})
		return nil
	}))

	slow := &blockingClassifier{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewService(store, nil, slog.Default(), observability.NewMetricsForTesting(),
		WithHandleFactory(func(namespace string) *Handle {
			if namespace == "slow" {
				return NewHandle(slow)
			}
			return NewHandle(&mockClassifier{})
		}),
	)

	classified := make(chan error, 1)
	go func() {
		_, err := s.Classify(ctx, "slow", domain.FeatureList("a"))
		classified <- err
	}()
	<-slow.entered

	trained := make(chan error, 1)
	go func() {
		_, err := s.Train(ctx, "fast", "y", domain.FeatureList("b"))
		trained <- err
	}()

	select {
	case err := <-trained:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("training another namespace waited on a restore")
	}

	close(slow.release)
	require.NoError(t, <-classified)
}
