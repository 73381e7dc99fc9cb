package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Field aliases seen across apibay-style mirrors, in priority order.
var (
	titleKeys    = []string{"name", "title"}
	hashKeys     = []string{"info_hash", "infohash", "hash"}
	seederKeys   = []string{"seeders", "seeds", "seed"}
	leecherKeys  = []string{"leechers", "peers", "leech"}
	sizeKeys     = []string{"size", "size_bytes"}
	noResultName = "No results returned"
)

type jsonRecord map[string]json.RawMessage

// ParseJSON reads an array of torrent records. A payload that is not an
// array yields no results and a *ParseError. Malformed elements are skipped.
func ParseJSON(body []byte) ([]Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &ParseError{Mode: ModeJSON, Err: errors.New("empty body")}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &ParseError{Mode: ModeJSON, Err: err}
	}

	out := make([]Result, 0, len(items))
	for _, raw := range items {
		var rec jsonRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.isPlaceholder() {
			continue
		}
		r, ok := finalize(
			rec.str(titleKeys),
			rec.str(hashKeys),
			parseCount(rec.str(seederKeys)),
			parseCount(rec.str(leecherKeys)),
			rec.size(),
		)
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// isPlaceholder detects the sentinel row apibay returns for an empty search.
func (r jsonRecord) isPlaceholder() bool {
	if r.str([]string{"id"}) == "0" {
		return true
	}
	if r.str(titleKeys) == noResultName {
		return true
	}
	return strings.Trim(r.str(hashKeys), "0") == ""
}

// str returns the first present key as a string. Numbers are formatted
// without exponent; null and nested values are ignored.
func (r jsonRecord) str(keys []string) string {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return strings.TrimSpace(s)
			}
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			var n json.Number
			if err := json.Unmarshal(raw, &n); err == nil {
				return n.String()
			}
		}
	}
	return ""
}

// size accepts a plain byte count or a human string like "1.2 GiB".
func (r jsonRecord) size() int64 {
	s := r.str(sizeKeys)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 {
			return 0
		}
		return int64(f)
	}
	return ParseSize(s)
}
