package minimizer

import (
	"net/url"
	"strings"
)

// formPair is one name=value pair of an application/x-www-form-urlencoded
// body. Duplicates are independent candidates, like repeated headers.
type formPair struct {
	name    string
	value   string
	removed bool
}

func (p *formPair) setRemoved(r bool)  { p.removed = r }
func (p *formPair) isRemoved() bool    { return p.removed }
func (p *formPair) isEmptyValue() bool { return p.value == "" }

// parseForm splits a urlencoded body into ordered pairs, preserving
// duplicates and pair order exactly as written.
func parseForm(text string) []*formPair {
	if text == "" {
		return nil
	}
	var pairs []*formPair
	for _, raw := range strings.Split(text, "&") {
		if raw == "" {
			continue
		}
		name, value, _ := strings.Cut(raw, "=")
		decodedName, errN := url.QueryUnescape(name)
		if errN != nil {
			decodedName = name
		}
		decodedValue, errV := url.QueryUnescape(value)
		if errV != nil {
			decodedValue = value
		}
		pairs = append(pairs, &formPair{name: decodedName, value: decodedValue})
	}
	return pairs
}

// serializeForm re-encodes the surviving pairs in their original order.
func serializeForm(pairs []*formPair) string {
	var parts []string
	for _, p := range pairs {
		if p.removed {
			continue
		}
		parts = append(parts, url.QueryEscape(p.name)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}
