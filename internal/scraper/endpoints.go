package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// Placeholders substituted into endpoint templates.
const (
	PlaceholderQuery    = "{query}"
	PlaceholderCategory = "{category}"
)

// DefaultJSONEndpoints are apibay-compatible mirrors, tried in order.
var DefaultJSONEndpoints = []string{
	"https://apibay.org/q.php?q={query}&cat={category}",
	"https://pirateproxy.live/apibay/q.php?q={query}&cat={category}",
	"https://apibay.sbs/q.php?q={query}&cat={category}",
}

// DefaultHTMLEndpoints serve the classic search results table.
var DefaultHTMLEndpoints = []string{
	"https://thepiratebay.org/search/{query}/1/99/{category}",
	"https://thepiratebay0.org/search/{query}/1/99/{category}",
	"https://tpb.party/search/{query}/1/99/{category}",
}

// CategoryCodes maps a category to the index's category codes, most specific
// first. Each code is tried in turn against every endpoint.
type CategoryCodes map[Category][]string

// DefaultCategoryCodes falls back from the HD subcategory to the broader
// parent category.
func DefaultCategoryCodes() CategoryCodes {
	return CategoryCodes{
		MoviesHD: {"207", "201", "200"},
		TVHD:     {"208", "205", "200"},
		AllVideo: {"200", "0"},
	}
}

// Registry is the immutable, ordered set of endpoint templates for both
// transport modes.
type Registry struct {
	json  []string
	html  []string
	codes CategoryCodes
}

// NewRegistry validates the templates and copies them. Either mode may be
// empty, but not both.
func NewRegistry(jsonTemplates, htmlTemplates []string, codes CategoryCodes) (*Registry, error) {
	if len(jsonTemplates) == 0 && len(htmlTemplates) == 0 {
		return nil, fmt.Errorf("registry needs at least one endpoint")
	}
	for _, tpl := range append(append([]string(nil), jsonTemplates...), htmlTemplates...) {
		if err := validateTemplate(tpl); err != nil {
			return nil, err
		}
	}
	if codes == nil {
		codes = DefaultCategoryCodes()
	}

	cp := make(CategoryCodes, len(codes))
	for c, list := range codes {
		if len(list) == 0 {
			return nil, fmt.Errorf("category %s has no codes", c)
		}
		cp[c] = append([]string(nil), list...)
	}

	return &Registry{
		json:  trimAll(jsonTemplates),
		html:  trimAll(htmlTemplates),
		codes: cp,
	}, nil
}

// DefaultRegistry returns the built-in mirror lists.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultJSONEndpoints, DefaultHTMLEndpoints, DefaultCategoryCodes())
	if err != nil {
		panic(err)
	}
	return r
}

// Templates returns a copy of the templates for a mode.
func (r *Registry) Templates(mode Mode) []string {
	switch mode {
	case ModeJSON:
		return append([]string(nil), r.json...)
	case ModeHTML:
		return append([]string(nil), r.html...)
	}
	return nil
}

// Codes returns the category codes for c, falling back to the all-video set.
func (r *Registry) Codes(c Category) []string {
	if list, ok := r.codes[c]; ok {
		return append([]string(nil), list...)
	}
	if list, ok := r.codes[AllVideo]; ok {
		return append([]string(nil), list...)
	}
	return []string{"0"}
}

// URLs expands every template of the mode with the query text and each
// category code. The order is endpoint-major, code-minor.
func (r *Registry) URLs(mode Mode, q Query) []string {
	templates := r.Templates(mode)
	codes := r.Codes(q.Category)
	encoded := EscapeQuery(strings.TrimSpace(q.Text))

	urls := make([]string, 0, len(templates)*len(codes))
	for _, tpl := range templates {
		if !strings.Contains(tpl, PlaceholderCategory) {
			urls = append(urls, expand(tpl, encoded, ""))
			continue
		}
		for _, code := range codes {
			urls = append(urls, expand(tpl, encoded, url.QueryEscape(code)))
		}
	}
	return urls
}

// EscapeQuery percent-encodes s so it is safe in both a path segment and a
// query value. Spaces become %20.
func EscapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func expand(tpl, query, code string) string {
	return strings.NewReplacer(PlaceholderQuery, query, PlaceholderCategory, code).Replace(tpl)
}

func validateTemplate(tpl string) error {
	tpl = strings.TrimSpace(tpl)
	if !strings.Contains(tpl, PlaceholderQuery) {
		return fmt.Errorf("endpoint %q has no %s placeholder", tpl, PlaceholderQuery)
	}
	u, err := url.Parse(expand(tpl, "test", "0"))
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", tpl, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must be http or https", tpl)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q must have a host", tpl)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
