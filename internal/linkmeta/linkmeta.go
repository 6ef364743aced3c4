// Package linkmeta reads and writes the link record this extension keeps in a
// scene item's shared metadata bag.
//
// The bag is written by other extensions and other viewers too, so every
// function here touches only Key and leaves the rest of the bag alone. Values
// under Key that do not have the expected shape mean "not a link"; nothing in
// this package returns an error for them.
package linkmeta

import (
	"encoding/json"
	"strings"

	"scenelinks/internal/model"
)

// Key namespaces the link record inside the metadata bag.
const Key = "com.scenelinks.panel/metadata"

const (
	fieldURL    = "url"
	fieldActive = "active"
)

// Metadata is the decoded link record. Extra holds fields this version does
// not know about; they are written back untouched.
type Metadata struct {
	URL    string
	Active bool
	Extra  map[string]any
}

// Decode reports whether v has the link shape: a keyed record with a
// non-empty string url and a boolean active.
func Decode(v any) (Metadata, bool) {
	rec, ok := asRecord(v)
	if !ok {
		return Metadata{}, false
	}
	url, ok := rec[fieldURL].(string)
	if !ok || strings.TrimSpace(url) == "" {
		return Metadata{}, false
	}
	active, ok := rec[fieldActive].(bool)
	if !ok {
		return Metadata{}, false
	}
	md := Metadata{URL: url, Active: active}
	for k, val := range rec {
		if k == fieldURL || k == fieldActive {
			continue
		}
		if md.Extra == nil {
			md.Extra = map[string]any{}
		}
		md.Extra[k] = val
	}
	return md, true
}

func asRecord(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, t != nil
	case json.RawMessage:
		return decodeJSON(t)
	case []byte:
		return decodeJSON(t)
	default:
		return nil, false
	}
}

func decodeJSON(b []byte) (map[string]any, bool) {
	var rec map[string]any
	if err := json.Unmarshal(b, &rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

// Value is the wire form stored under Key.
func (md Metadata) Value() map[string]any {
	out := make(map[string]any, len(md.Extra)+2)
	for k, v := range md.Extra {
		out[k] = v
	}
	out[fieldURL] = md.URL
	out[fieldActive] = md.Active
	return out
}

// HasKey is the raw presence check used for command decisions. A malformed
// value still counts as present.
func HasKey(it *model.SceneItem) bool {
	if it == nil || it.Metadata == nil {
		return false
	}
	_, ok := it.Metadata[Key]
	return ok
}

// FromItem decodes the link record of it, if any.
func FromItem(it *model.SceneItem) (Metadata, bool) {
	if it == nil || it.Metadata == nil {
		return Metadata{}, false
	}
	v, ok := it.Metadata[Key]
	if !ok {
		return Metadata{}, false
	}
	return Decode(v)
}

// Set replaces the link record on it.
func Set(it *model.SceneItem, md Metadata) {
	if it.Metadata == nil {
		it.Metadata = map[string]any{}
	}
	it.Metadata[Key] = md.Value()
}

// Delete removes the link record. It reports whether a key was present.
func Delete(it *model.SceneItem) bool {
	if !HasKey(it) {
		return false
	}
	delete(it.Metadata, Key)
	return true
}
