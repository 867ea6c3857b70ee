package request

import (
	"net/url"
	"sort"
	"strings"

	"github.com/kailas-cloud/iiifsearch/internal/domain"
)

// Params is a single-valued view of a query string.
// The last value of a repeated key wins; keys keep the order of their first appearance.
type Params struct {
	keys   []string
	values map[string]string
}

// ParseQuery splits a raw query string (without the leading '?') into Params.
// A pair that cannot be percent-decoded is rejected.
func ParseQuery(raw string) (Params, error) {
	p := Params{values: make(map[string]string)}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return Params{}, domain.NewInvalidParameter(rawKey, "malformed escape sequence in name")
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Params{}, domain.NewInvalidParameter(key, "malformed escape sequence in value")
		}
		if key == "" {
			continue
		}
		p.set(key, value)
	}
	return p, nil
}

// Normalize flattens an already-decoded multi-valued mapping.
// order lists the keys in the order they should be reported; a nil order sorts the keys.
// A key present in values but carrying no value at all is rejected.
func Normalize(values map[string][]string, order []string) (Params, error) {
	if order == nil {
		order = make([]string, 0, len(values))
		for k := range values {
			order = append(order, k)
		}
		sort.Strings(order)
	}

	p := Params{values: make(map[string]string, len(values))}
	for _, key := range order {
		vv, ok := values[key]
		if !ok {
			continue
		}
		if len(vv) == 0 {
			return Params{}, domain.NewInvalidParameter(key, "expected a string or a list of strings")
		}
		p.set(key, vv[len(vv)-1])
	}
	return p, nil
}

func (p *Params) set(key, value string) {
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key was supplied.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns all parameter names in first-appearance order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}
