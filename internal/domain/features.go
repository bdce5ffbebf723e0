package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strconv"
)

// Features is a raw observation: key/value attributes or a bare token list.
// The zero value is an absent observation.
type Features struct {
	Attrs map[string]any
	List  []any

	scalar bool // a non-container value such as "x" or 42
}

// FeatureMap builds an attribute observation.
func FeatureMap(attrs map[string]any) Features {
	return Features{Attrs: attrs}
}

// FeatureList builds a token-list observation.
func FeatureList(values ...any) Features {
	if values == nil {
		values = []any{}
	}
	return Features{List: values}
}

// ParseFeatures decodes a JSON observation. Empty input and null decode to an
// absent observation; a JSON scalar decodes to a structurally invalid one.
func ParseFeatures(data []byte) (Features, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Features{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Features{}, fmt.Errorf("%w: decode features: %v", ErrBadArguments, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Features{}, fmt.Errorf("%w: decode features: trailing data after JSON value", ErrBadArguments)
	}

	switch t := v.(type) {
	case nil:
		return Features{}, nil
	case map[string]any:
		return Features{Attrs: t}, nil
	case []any:
		return Features{List: t}, nil
	default:
		return Features{scalar: true}, nil
	}
}

// Valid reports whether the observation is structurally usable: absent, an
// object or an array.
func (f Features) Valid() bool {
	return !f.scalar
}

// Empty reports whether there is nothing to index.
func (f Features) Empty() bool {
	return len(f.Attrs) == 0 && len(f.List) == 0
}

// Tokens flattens the observation into feature tokens. Attributes become
// "key=value" in key order; list elements keep their order.
func (f Features) Tokens() []string {
	if len(f.Attrs) > 0 {
		keys := make([]string, 0, len(f.Attrs))
		for k := range f.Attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		tokens := make([]string, len(keys))
		for i, k := range keys {
			tokens[i] = k + "=" + tokenString(f.Attrs[k])
		}
		return tokens
	}

	tokens := make([]string, len(f.List))
	for i, v := range f.List {
		tokens[i] = tokenString(v)
	}
	return tokens
}

func (f Features) MarshalJSON() ([]byte, error) {
	switch {
	case f.Attrs != nil:
		return json.Marshal(f.Attrs)
	case f.List != nil:
		return json.Marshal(f.List)
	default:
		return []byte("null"), nil
	}
}

func (f *Features) UnmarshalJSON(data []byte) error {
	parsed, err := ParseFeatures(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// maxNumberDigits bounds the fractional digits numberString will expand.
const maxNumberDigits = 400

// numberString renders a JSON number so that equal values share a token and
// distinct values never do. Literals float64 cannot hold exactly are kept as
// written.
func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	exact, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return n.String()
	}
	if f, err := n.Float64(); err == nil {
		if r := new(big.Rat); r.SetFloat64(f) != nil && r.Cmp(exact) == 0 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	scaled := new(big.Rat).Set(exact)
	ten := big.NewRat(10, 1)
	for digits := 0; digits <= maxNumberDigits; digits++ {
		if scaled.IsInt() {
			return exact.FloatString(digits)
		}
		scaled.Mul(scaled, ten)
	}
	return n.String()
}

func tokenString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return numberString(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
