// Package magnet builds and inspects magnet URIs.
package magnet

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// DefaultTrackers are appended to every magnet unless configured otherwise.
var DefaultTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.demonii.com:1337/announce",
	"udp://tracker.coppersurfer.tk:6969/announce",
	"udp://tracker.leechers-paradise.org:6969/announce",
}

// Build returns magnet:?xt=urn:btih:<hash>&dn=<title>&tr=<tracker>...
// The title and trackers are percent-encoded; tracker order is preserved.
func Build(infoHash, title string, trackers []string) string {
	var b strings.Builder
	b.WriteString("magnet:?xt=urn:btih:")
	b.WriteString(infoHash)
	b.WriteString("&dn=")
	b.WriteString(escape(title))
	for _, tr := range trackers {
		b.WriteString("&tr=")
		b.WriteString(escape(tr))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Link is the parsed form of a magnet URI.
type Link struct {
	InfoHash    string
	DisplayName string
	Trackers    []string
}

// Parse decodes a magnet URI and returns its lowercase hex info-hash,
// display name and trackers.
func Parse(uri string) (Link, error) {
	m, err := metainfo.ParseMagnetUri(uri)
	if err != nil {
		return Link{}, fmt.Errorf("parse magnet: %w", err)
	}
	return Link{
		InfoHash:    m.InfoHash.HexString(),
		DisplayName: m.DisplayName,
		Trackers:    m.Trackers,
	}, nil
}
