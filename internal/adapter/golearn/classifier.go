// Package golearn implements domain.Classifier with a k-nearest-neighbour
// model from github.com/sjwhitworth/golearn.
package golearn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/knn"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
)

// Defaults used when options are missing or invalid.
const (
	DefaultDistance   = "euclidean"
	DefaultAlgorithm  = "linear"
	DefaultNeighbours = 1
)

// ErrNotTrained is returned by Predict before the first successful Train.
var ErrNotTrained = errors.New("model has not been trained")

var (
	distances  = map[string]bool{"euclidean": true, "manhattan": true, "cosine": true}
	algorithms = map[string]bool{"linear": true, "kdtree": true}
)

// Settings is the resolved model configuration.
type Settings struct {
	Distance   string
	Algorithm  string
	Neighbours int
}

// ParseOptions resolves opts against the defaults. Every key that could not
// be applied is returned in ignored, sorted.
func ParseOptions(opts domain.Options) (s Settings, ignored []string) {
	s = Settings{Distance: DefaultDistance, Algorithm: DefaultAlgorithm, Neighbours: DefaultNeighbours}

	for key, v := range opts {
		switch key {
		case "distance":
			if name, ok := v.(string); ok && distances[strings.ToLower(name)] {
				s.Distance = strings.ToLower(name)
				continue
			}
		case "algorithm":
			if name, ok := v.(string); ok && algorithms[strings.ToLower(name)] {
				s.Algorithm = strings.ToLower(name)
				continue
			}
		case "neighbours", "neighbors", "k":
			if n, ok := positiveInt(v); ok {
				s.Neighbours = n
				continue
			}
		}
		ignored = append(ignored, key)
	}
	slices.Sort(ignored)
	return s, ignored
}

// Classifier is a kNN model rebuilt from scratch on every Train.
type Classifier struct {
	settings Settings
	logger   *slog.Logger

	mu        sync.Mutex
	model     *knn.KNNClassifier
	attrs     []base.Attribute
	classAttr *base.CategoricalAttribute
	width     int
}

// New creates an untrained classifier.
func New(settings Settings, logger *slog.Logger) *Classifier {
	return &Classifier{settings: settings, logger: logger}
}

// Settings returns the resolved configuration.
func (c *Classifier) Settings() Settings { return c.settings }

// Train fits a fresh model to rows. A failed Train leaves the previous
// model in place.
func (c *Classifier) Train(ctx context.Context, rows []domain.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("no training rows")
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r.Features))
	}
	if width == 0 {
		return errors.New("training rows have no features")
	}

	attrs := make([]base.Attribute, width)
	for i := range attrs {
		attrs[i] = base.NewFloatAttribute(fmt.Sprintf("f%d", i))
	}
	classAttr := new(base.CategoricalAttribute)
	classAttr.SetName("class")

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, width)
	for i, a := range attrs {
		specs[i] = inst.AddAttribute(a)
	}
	classSpec := inst.AddAttribute(classAttr)
	if err := inst.AddClassAttribute(classAttr); err != nil {
		return fmt.Errorf("add class attribute: %w", err)
	}
	if err := inst.Extend(len(rows)); err != nil {
		return fmt.Errorf("allocate rows: %w", err)
	}

	for row, r := range rows {
		setRow(inst, specs, row, r.Features)
		inst.Set(classSpec, row, classAttr.GetSysValFromString(strconv.Itoa(r.Class)))
	}

	k := min(c.settings.Neighbours, len(rows))
	model := knn.NewKnnClassifier(c.settings.Distance, c.settings.Algorithm, k)
	model.AllowOptimisations = false
	if err := model.Fit(inst); err != nil {
		return fmt.Errorf("fit knn: %w", err)
	}

	c.mu.Lock()
	c.model, c.attrs, c.classAttr, c.width = model, attrs, classAttr, width
	c.mu.Unlock()

	c.logger.Debug("knn model trained",
		"rows", len(rows),
		"width", width,
		"neighbours", k,
		"distance", c.settings.Distance,
	)
	return nil
}

// Predict returns the class id of the nearest training rows. The vector is
// padded with domain.AbsentIndex or truncated to the trained width.
func (c *Classifier) Predict(ctx context.Context, features []int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return 0, ErrNotTrained
	}

	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(c.attrs))
	for i, a := range c.attrs {
		specs[i] = inst.AddAttribute(a)
	}
	inst.AddAttribute(c.classAttr)
	if err := inst.AddClassAttribute(c.classAttr); err != nil {
		return 0, fmt.Errorf("add class attribute: %w", err)
	}
	if err := inst.Extend(1); err != nil {
		return 0, fmt.Errorf("allocate row: %w", err)
	}
	setRow(inst, specs, 0, features)

	pred, err := c.model.Predict(inst)
	if err != nil {
		return 0, fmt.Errorf("knn predict: %w", err)
	}

	label := base.GetClass(pred, 0)
	id, err := strconv.Atoi(label)
	if err != nil {
		return 0, fmt.Errorf("unexpected class value %q: %w", label, err)
	}
	return id, nil
}

func setRow(inst *base.DenseInstances, specs []base.AttributeSpec, row int, features []int) {
	for i, spec := range specs {
		v := float64(domain.AbsentIndex)
		if i < len(features) {
			v = float64(features[i])
		}
		inst.Set(spec, row, base.PackFloatToBytes(v))
	}
}

func positiveInt(v any) (int, bool) {
	var n float64
	switch t := v.(type) {
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case float64:
		n = t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		n = f
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if n < 1 || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}
