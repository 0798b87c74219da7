package opendata

import "sort"

// Registry maps (category, subcategory) selectors to their adapters. It is
// built once at process start and never mutated afterwards.
type Registry struct {
	adapters []*Adapter
}

func NewRegistry(adapters ...*Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// DefaultRegistry returns a registry over all city feed registrations.
func DefaultRegistry() *Registry {
	return NewRegistry(Endpoints()...)
}

// All returns every registered adapter.
func (r *Registry) All() []*Adapter {
	return r.adapters
}

// Match returns the adapters tagged with the category, narrowed by
// subcategory when one is given. An empty category or "all" matches every
// adapter.
func (r *Registry) Match(category, subcategory string) []*Adapter {
	var out []*Adapter
	for _, a := range r.adapters {
		if category != "" && category != "all" && a.Category != category {
			continue
		}
		if subcategory != "" && a.Subcategory != subcategory {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Categories returns the full facet vocabulary as {category: [subcategory...]}
// with subcategories sorted and de-duplicated.
func (r *Registry) Categories() map[string][]string {
	seen := make(map[string]map[string]bool)
	for _, a := range r.adapters {
		if seen[a.Category] == nil {
			seen[a.Category] = make(map[string]bool)
		}
		seen[a.Category][a.Subcategory] = true
	}
	out := make(map[string][]string, len(seen))
	for cat, subs := range seen {
		list := make([]string, 0, len(subs))
		for sub := range subs {
			list = append(list, sub)
		}
		sort.Strings(list)
		out[cat] = list
	}
	return out
}
