package svm

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

// HandleFactory creates the classifier handle for a namespace.
type HandleFactory func(namespace string) *Handle

// Service keeps one classifier handle per trained namespace and routes
// train, classify and dump calls through the adapter.
type Service struct {
	adapter *Adapter
	store   *domain.Store
	logger  *slog.Logger
	factory HandleFactory

	mu      sync.Mutex
	handles map[string]*handleEntry
}

// handleEntry builds its handle once, outside the service lock.
type handleEntry struct {
	once sync.Once
	h    *Handle
}

// untrained stands in for namespaces the store does not know, so classify
// reports them as not trained without allocating a classifier.
var untrained = NewHandle(untrainedClassifier{})

type untrainedClassifier struct{}

func (untrainedClassifier) Train(context.Context, []domain.Row) error {
	return domain.ErrNamespaceNotTrained
}

func (untrainedClassifier) Predict(context.Context, []int) (int, error) {
	return 0, domain.ErrNamespaceNotTrained
}

// Option configures a Service.
type Option func(*Service)

// WithHandleFactory replaces the default handle construction.
func WithHandleFactory(f HandleFactory) Option {
	return func(s *Service) { s.factory = f }
}

// NewService creates a service whose handles are built with opts.
func NewService(store *domain.Store, opts domain.Options, logger *slog.Logger, metrics *observability.Metrics, options ...Option) *Service {
	s := &Service{
		adapter: NewAdapter(store, logger, metrics),
		store:   store,
		logger:  logger,
		handles: make(map[string]*handleEntry),
	}
	s.factory = func(string) *Handle { return Create(opts, logger) }
	for _, o := range options {
		o(s)
	}
	return s
}

// Train adds a labeled observation to namespace and returns its dataset.
func (s *Service) Train(ctx context.Context, namespace, classification string, features domain.Features) ([]domain.LabeledRow, error) {
	h, _ := s.handle(ctx, namespace, true)
	return s.adapter.Train(ctx, h, namespace, classification, features)
}

// Classify predicts the label of features in namespace. It never creates a
// handle for a namespace that has not been trained.
func (s *Service) Classify(ctx context.Context, namespace string, features domain.Features) (string, error) {
	h, ok := s.handle(ctx, namespace, false)
	if !ok {
		h = untrained
	}
	return s.adapter.Classify(ctx, h, namespace, features)
}

// Dump returns the dataset of namespace.
func (s *Service) Dump(ctx context.Context, namespace string) ([]domain.LabeledRow, error) {
	return s.adapter.Dump(ctx, namespace)
}

// CheckReadiness reports ready once the store has loaded its dictionaries.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.store.Loaded() {
		return errors.New("dictionaries not loaded")
	}
	return nil
}

// handle returns the namespace's handle. Without create, only namespaces the
// store has committed get one. A handle for a namespace restored from disk is
// trained from its rows on first use; that fit holds no service-wide lock.
func (s *Service) handle(ctx context.Context, namespace string, create bool) (*Handle, bool) {
	s.mu.Lock()
	e, ok := s.handles[namespace]
	if !ok {
		if !create && !s.store.Trained(namespace) {
			s.mu.Unlock()
			return nil, false
		}
		e = &handleEntry{}
		s.handles[namespace] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.h = s.factory(namespace)
		s.restore(ctx, namespace, e.h)
	})
	return e.h, true
}

func (s *Service) restore(ctx context.Context, namespace string, h *Handle) {
	err := s.store.View(ctx, namespace, func(d *domain.Dictionary) error {
		if len(d.Rows) == 0 || !h.valid() {
			return nil
		}
		return h.Train(ctx, d.Rows)
	})
	if err != nil && !errors.Is(err, domain.ErrNamespaceNotTrained) {
		s.logger.Warn("restoring classifier failed", "namespace", namespace, "error", err)
	}
}
