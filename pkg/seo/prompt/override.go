package prompt

import (
	"sort"
	"sync"

	"content-optimizer-be/pkg/seo"
)

// OverrideKey identifies a manual override. Field is either an issue
// type ("meta_description_short") or a document field ("title").
type OverrideKey struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Override struct {
	SkipValidation bool `json:"skip_validation"`
}

type OverrideEntry struct {
	OverrideKey
	Override
}

// OverrideRegistry holds manual overrides consulted before prompts are
// generated. It is safe for concurrent use.
type OverrideRegistry struct {
	mu      sync.RWMutex
	entries map[OverrideKey]Override
}

func NewOverrideRegistry() *OverrideRegistry {
	return &OverrideRegistry{entries: make(map[OverrideKey]Override)}
}

func (r *OverrideRegistry) Set(field, reason string, o Override) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[OverrideKey{Field: field, Reason: reason}] = o
}

func (r *OverrideRegistry) Remove(field, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, OverrideKey{Field: field, Reason: reason})
}

// Skips reports whether an override excludes is from correction, and
// the reason recorded for it.
func (r *OverrideRegistry) Skips(is seo.Issue) (bool, string) {
	if r == nil {
		return false, ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reasons []string
	for k, o := range r.entries {
		if !o.SkipValidation {
			continue
		}
		if k.Field == string(is.Type) || k.Field == string(is.Field) {
			reasons = append(reasons, k.Reason)
		}
	}
	if len(reasons) == 0 {
		return false, ""
	}
	sort.Strings(reasons)
	return true, reasons[0]
}

// List returns all overrides ordered by field then reason.
func (r *OverrideRegistry) List() []OverrideEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OverrideEntry, 0, len(r.entries))
	for k, o := range r.entries {
		out = append(out, OverrideEntry{OverrideKey: k, Override: o})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
