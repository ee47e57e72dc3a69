package preview

// Registry holds the site-specific extractors in priority order. Resolution
// is first-match: the order extractors are registered in is the order they
// are asked in.
type Registry struct {
	extractors []Extractor
}

func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Resolve returns the first extractor claiming the domain, or nil when none
// does and the caller should fall through to the generic path.
func (r *Registry) Resolve(domain string) Extractor {
	for _, extractor := range r.extractors {
		if extractor.CanHandle(domain) {
			return extractor
		}
	}
	return nil
}
