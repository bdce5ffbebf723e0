package domain

import (
	"fmt"
	"slices"
)

// AbsentIndex is the feature id given to tokens the dictionary has never seen.
const AbsentIndex = -1

// Row is one normalized training example.
type Row struct {
	Features []int `json:"features"`
	Class    int   `json:"class"`
}

// LabeledRow is a Row translated back to its original tokens and label.
type LabeledRow struct {
	Features       []string `json:"features"`
	Classification string   `json:"classification"`
}

// Dictionary maps a namespace's observed feature tokens and class labels to
// stable integer ids and holds the namespace's normalized rows.
type Dictionary struct {
	Classifications []string `json:"classifications"`
	Features        []string `json:"features"`
	Rows            []Row    `json:"rows"`

	classIdx   map[string]int
	featureIdx map[string]int
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		Classifications: []string{},
		Features:        []string{},
		Rows:            []Row{},
	}
}

// IndexFeatureValue returns the id of token, adding it if unseen.
func (d *Dictionary) IndexFeatureValue(token string) int {
	d.ensureIndex()
	if i, ok := d.featureIdx[token]; ok {
		return i
	}
	d.Features = append(d.Features, token)
	d.featureIdx[token] = len(d.Features) - 1
	return len(d.Features) - 1
}

// IndexClassification returns the id of label, adding it if unseen.
func (d *Dictionary) IndexClassification(label string) int {
	d.ensureIndex()
	if i, ok := d.classIdx[label]; ok {
		return i
	}
	d.Classifications = append(d.Classifications, label)
	d.classIdx[label] = len(d.Classifications) - 1
	return len(d.Classifications) - 1
}

// ToIndexedRow indexes every token in order, adding unseen ones.
func (d *Dictionary) ToIndexedRow(tokens []string) []int {
	row := make([]int, len(tokens))
	for i, t := range tokens {
		row[i] = d.IndexFeatureValue(t)
	}
	return row
}

// LookupRow maps tokens to ids without modifying the dictionary. Unseen
// tokens map to AbsentIndex.
func (d *Dictionary) LookupRow(tokens []string) []int {
	d.ensureIndex()
	row := make([]int, len(tokens))
	for i, t := range tokens {
		idx, ok := d.featureIdx[t]
		if !ok {
			idx = AbsentIndex
		}
		row[i] = idx
	}
	return row
}

// Observe records a labeled observation and returns the row it produced.
func (d *Dictionary) Observe(label string, tokens []string) Row {
	row := Row{
		Features: d.ToIndexedRow(tokens),
		Class:    d.IndexClassification(label),
	}
	d.Rows = UpsertRow(d.Rows, row)
	return row
}

// Label returns the class label for a class id.
func (d *Dictionary) Label(classID int) (string, bool) {
	if classID < 0 || classID >= len(d.Classifications) {
		return "", false
	}
	return d.Classifications[classID], true
}

// ToLabeledStrings translates rows back to tokens and labels. An id outside
// the dictionary means the rows do not belong to it.
func (d *Dictionary) ToLabeledStrings(rows []Row) ([]LabeledRow, error) {
	out := make([]LabeledRow, len(rows))
	for i, r := range rows {
		features := make([]string, len(r.Features))
		for j, idx := range r.Features {
			if idx < 0 || idx >= len(d.Features) {
				return nil, fmt.Errorf("row %d: feature id %d out of range [0,%d)", i, idx, len(d.Features))
			}
			features[j] = d.Features[idx]
		}
		label, ok := d.Label(r.Class)
		if !ok {
			return nil, fmt.Errorf("row %d: class id %d out of range [0,%d)", i, r.Class, len(d.Classifications))
		}
		out[i] = LabeledRow{Features: features, Classification: label}
	}
	return out, nil
}

// Dataset returns every row in labeled form.
func (d *Dictionary) Dataset() ([]LabeledRow, error) {
	return d.ToLabeledStrings(d.Rows)
}

// Clone returns a deep copy.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{
		Classifications: slices.Clone(d.Classifications),
		Features:        slices.Clone(d.Features),
		Rows:            make([]Row, len(d.Rows)),
	}
	if c.Classifications == nil {
		c.Classifications = []string{}
	}
	if c.Features == nil {
		c.Features = []string{}
	}
	for i, r := range d.Rows {
		c.Rows[i] = Row{Features: slices.Clone(r.Features), Class: r.Class}
	}
	return c
}

// ensureIndex rebuilds the lookup maps, which are absent after JSON decoding.
func (d *Dictionary) ensureIndex() {
	if d.featureIdx != nil && d.classIdx != nil {
		return
	}
	d.featureIdx = make(map[string]int, len(d.Features))
	for i, f := range d.Features {
		if _, dup := d.featureIdx[f]; !dup {
			d.featureIdx[f] = i
		}
	}
	d.classIdx = make(map[string]int, len(d.Classifications))
	for i, c := range d.Classifications {
		if _, dup := d.classIdx[c]; !dup {
			d.classIdx[c] = i
		}
	}
}
