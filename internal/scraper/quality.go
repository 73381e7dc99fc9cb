package scraper

import "strings"

// Tag is the resolution derived from a release title.
type Tag int

const (
	TagUnknown Tag = iota
	TagOther
	TagP1080
	TagP4K
)

func (t Tag) String() string {
	switch t {
	case TagP1080:
		return "1080p"
	case TagP4K:
		return "4K"
	case TagOther:
		return "other"
	}
	return "unknown"
}

var (
	markers4K    = []string{"2160", "4k", "uhd"}
	markers1080p = []string{"1080"}
)

// Classify tags a title by its resolution markers. 4K markers are checked
// first so that a UHD release mentioning its 1080p source stays 4K.
func Classify(title string) Tag {
	lower := strings.ToLower(strings.TrimSpace(title))
	if lower == "" {
		return TagUnknown
	}
	if containsAny(lower, markers4K) {
		return TagP4K
	}
	if containsAny(lower, markers1080p) {
		return TagP1080
	}
	return TagOther
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
