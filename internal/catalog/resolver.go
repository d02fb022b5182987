package catalog

import "strings"

// Resolve maps a free-text or classifier-produced label onto a catalog entry.
// Case-insensitive exact equality wins; substring containment is the
// fallback; an empty query matches nothing.
func Resolve(query string, products []Product) (Product, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Product{}, false
	}

	for _, p := range products {
		if strings.ToLower(p.Name) == q {
			return p, true
		}
	}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return p, true
		}
	}
	return Product{}, false
}

// Filter returns the products whose name contains the term,
// case-insensitively. An empty term means "show all".
func Filter(term string, products []Product) []Product {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		out := make([]Product, len(products))
		copy(out, products)
		return out
	}

	out := []Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}
