package scraper

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// ParseError is a diagnostic for a body that could not be interpreted. The
// pipeline treats it the same as an empty result set.
type ParseError struct {
	Mode Mode
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Mode, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse dispatches to the parser for the response's mode. Records that fail
// validation are dropped; they never abort the whole body.
func Parse(mode Mode, body []byte) ([]Result, error) {
	switch mode {
	case ModeJSON:
		return ParseJSON(body)
	case ModeHTML:
		return ParseHTML(body)
	}
	return nil, &ParseError{Mode: mode, Err: fmt.Errorf("unsupported mode")}
}

// normalizeHash returns the lowercase form of a 40-character hex info-hash,
// or false if s is not one.
func normalizeHash(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 40 {
		return "", false
	}
	var h metainfo.Hash
	if err := h.FromHexString(s); err != nil {
		return "", false
	}
	if h == (metainfo.Hash{}) {
		return "", false
	}
	return h.HexString(), true
}

var (
	sizeRe      = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]+)*)\s*([kmgt]i?b|b|bytes?)\b`)
	thousandsRe = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+$`)
)

var sizeUnits = map[string]float64{
	"b":     1,
	"byte":  1,
	"bytes": 1,
	"kb":    1 << 10,
	"kib":   1 << 10,
	"mb":    1 << 20,
	"mib":   1 << 20,
	"gb":    1 << 30,
	"gib":   1 << 30,
	"tb":    1 << 40,
	"tib":   1 << 40,
}

// ParseSize converts a human size such as "1.4 GiB" to bytes. Both the IEC
// and the SI spellings are treated as powers of 1024, matching how index
// sites label them. Unrecognized input yields 0.
func ParseSize(s string) int64 {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(sizeNumber(m[1]), 64)
	if err != nil || v < 0 {
		return 0
	}
	mult, ok := sizeUnits[strings.ToLower(m[2])]
	if !ok {
		return 0
	}
	b := v * mult
	if b > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(b)
}

// sizeNumber normalizes separators. A comma is a thousands separator when a
// dot is also present or when it groups digits in threes, else a decimal mark.
func sizeNumber(n string) string {
	if strings.Contains(n, ".") || thousandsRe.MatchString(n) {
		return strings.ReplaceAll(n, ",", "")
	}
	return strings.ReplaceAll(n, ",", ".")
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}

// parseCount reads a non-negative integer, tolerating thousands separators.
// Anything unreadable or negative is 0.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// finalize applies the shared validation and tagging to a candidate record.
func finalize(title, hash string, seeders, leechers int, size int64) (Result, bool) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return Result{}, false
	}
	h, ok := normalizeHash(hash)
	if !ok {
		return Result{}, false
	}
	if seeders < 0 {
		seeders = 0
	}
	if leechers < 0 {
		leechers = 0
	}
	if size < 0 {
		size = 0
	}
	return Result{
		Title:    title,
		InfoHash: h,
		Seeders:  seeders,
		Leechers: leechers,
		Size:     size,
		Tag:      Classify(title),
	}, true
}
