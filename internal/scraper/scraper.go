// Package scraper implements the search-and-normalize pipeline: it queries an
// ordered list of index mirrors (JSON API first, HTML listings second), parses
// either response shape into one canonical Result, tags each result with its
// resolution and returns a filtered list sorted by seeders.
package scraper

import (
	"fmt"
	"strings"
)

// Mode selects the transport and parse strategy for an endpoint.
type Mode int

const (
	ModeJSON Mode = iota
	ModeHTML
)

func (m Mode) String() string {
	switch m {
	case ModeJSON:
		return "json"
	case ModeHTML:
		return "html"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Category is the kind of content a query is restricted to.
type Category int

const (
	MoviesHD Category = iota
	TVHD
	AllVideo
)

var categoryNames = map[Category]string{
	MoviesHD: "movies_hd",
	TVHD:     "shows_hd",
	AllVideo: "all_video",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case MoviesHD:
		return "Movies (HD)"
	case TVHD:
		return "TV Shows (HD)"
	case AllVideo:
		return "All Video"
	}
	return c.String()
}

// ParseCategory accepts the config/CLI spelling of a category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if s == name {
			return c, nil
		}
	}
	switch s {
	case "movies", "movie":
		return MoviesHD, nil
	case "tv", "shows", "tv_hd":
		return TVHD, nil
	case "all", "video":
		return AllVideo, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Resolution is the filter applied to results after parsing.
type Resolution int

const (
	ResAny Resolution = iota
	Res1080p
	Res4K
)

func (r Resolution) String() string {
	switch r {
	case ResAny:
		return "any"
	case Res1080p:
		return "1080"
	case Res4K:
		return "4k"
	}
	return fmt.Sprintf("resolution(%d)", int(r))
}

// Label returns the human-readable resolution name.
func (r Resolution) Label() string {
	switch r {
	case Res1080p:
		return "1080p"
	case Res4K:
		return "4K"
	}
	return "any resolution"
}

// ParseResolution accepts "any", "1080", "1080p", "4k", "2160p".
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return ResAny, nil
	case "1080", "1080p":
		return Res1080p, nil
	case "4k", "2160", "2160p", "uhd":
		return Res4K, nil
	}
	return 0, fmt.Errorf("unknown resolution %q", s)
}

// Matches reports whether a result with the given tag passes the filter.
func (r Resolution) Matches(t Tag) bool {
	switch r {
	case Res1080p:
		return t == TagP1080
	case Res4K:
		return t == TagP4K
	}
	return true
}

// Query is one search request. It is passed by value and never mutated.
type Query struct {
	Text       string
	Category   Category
	Resolution Resolution
}

// Result is the canonical record both parse strategies produce.
type Result struct {
	Title    string
	InfoHash string // 40 hex characters
	Seeders  int
	Leechers int
	Size     int64 // bytes
	Tag      Tag

	// Relevance is the title/query similarity in [0,1]. Display only.
	Relevance float32
	// Source is the endpoint URL that produced this record.
	Source string
}

// Health returns a health score 0-100 based on seeders/leechers ratio
func (r Result) Health() int {
	if r.Seeders == 0 {
		return 0
	}
	if r.Leechers == 0 {
		return 100
	}
	return int(float64(r.Seeders) / float64(r.Seeders+r.Leechers) * 100)
}

// RawResponse is what the transport hands to the parser. It is discarded
// once parsed.
type RawResponse struct {
	URL  string
	Mode Mode
	Body []byte
	OK   bool
	Err  error
}
