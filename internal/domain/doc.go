// Package domain holds the namespace feature dictionary that sits between the
// API and the wrapped classifier, plus the weather and training-event models.
//
// # Namespaces
//
// A namespace is an isolated dictionary/classifier pair, e.g. "comfort" or
// "drseuss". Namespaces are created lazily on their first training call and
// live for the lifetime of the [Store].
//
// # Feature tokens
//
// An observation arrives either as key/value attributes or as a bare list:
//
//	{"temp": 74, "wind": "calm"}  →  ["temp=74", "wind=calm"]   (keys sorted)
//	["onefish", "bluefish"]        →  ["onefish", "bluefish"]   (order kept)
//
// Attribute tokens are key-qualified so the same value under two different
// keys indexes to two different features.
//
// # Indexing
//
// Each distinct token and class label gets a stable integer id equal to its
// first-seen position. A training example becomes a [Row]: the ids of its
// tokens plus the id of its label. Rows are unique per feature vector; a
// second observation of the same vector relabels the existing row (see
// [UpsertRow]). Tokens never seen during training look up as [AbsentIndex].
package domain
