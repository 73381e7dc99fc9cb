package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	btihRe     = regexp.MustCompile(`(?i)urn:btih:([0-9a-f]{40})`)
	detSizeRe  = regexp.MustCompile(`(?i)size\s+([0-9.,]+\s*[kmgt]?i?b)`)
	digitsOnly = regexp.MustCompile(`^[0-9][0-9,]*$`)
)

// ParseHTML extracts results from a search listing page. Each table row with
// a magnet link is a candidate; rows lacking a valid hash or a title are
// dropped.
func ParseHTML(body []byte) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Mode: ModeHTML, Err: err}
	}

	var out []Result
	seen := make(map[string]bool)

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		// Skip header rows
		if row.Find("th").Length() > 0 {
			return
		}

		link := row.Find(`a[href^="magnet:?xt="]`).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		m := btihRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		title := strings.TrimSpace(row.Find("div.detName a").First().Text())
		if title == "" {
			title = strings.TrimSpace(row.Find("a.detLink").First().Text())
		}
		if title == "" {
			title = magnetDisplayName(href)
		}

		seeders, leechers := rowCounts(row)
		size := rowSize(row)

		r, ok := finalize(title, m[1], seeders, leechers, size)
		if !ok || seen[r.InfoHash] {
			return
		}
		seen[r.InfoHash] = true
		out = append(out, r)
	})

	return out, nil
}

// rowCounts reads the first two right-aligned numeric cells as seeders and
// leechers.
func rowCounts(row *goquery.Selection) (int, int) {
	var nums []int
	row.Find(`td[align="right"]`).Each(func(_ int, td *goquery.Selection) {
		text := strings.TrimSpace(td.Text())
		if digitsOnly.MatchString(text) {
			nums = append(nums, parseCount(text))
		}
	})
	var seeders, leechers int
	if len(nums) > 0 {
		seeders = nums[0]
	}
	if len(nums) > 1 {
		leechers = nums[1]
	}
	return seeders, leechers
}

func rowSize(row *goquery.Selection) int64 {
	desc := strings.ReplaceAll(row.Find("font.detDesc").First().Text(), "\u00a0", " ")
	if desc == "" {
		desc = strings.ReplaceAll(row.Text(), "\u00a0", " ")
	}
	if m := detSizeRe.FindStringSubmatch(desc); m != nil {
		return ParseSize(m[1])
	}
	return 0
}

// magnetDisplayName returns the dn parameter of a magnet link.
func magnetDisplayName(magnet string) string {
	_, rawQuery, ok := strings.Cut(magnet, "?")
	if !ok {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(values.Get("dn"))
}
