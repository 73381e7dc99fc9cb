package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Tag
	}{
		{name: "1080p marker", title: "Movie.2020.1080p.WEB-DL", want: TagP1080},
		{name: "bare 1080", title: "Show S01E01 1080 HDTV", want: TagP1080},
		{name: "2160p", title: "Movie 2160p HDR", want: TagP4K},
		{name: "4k lowercase", title: "nature doc 4k", want: TagP4K},
		{name: "4K uppercase", title: "Nature Doc 4K", want: TagP4K},
		{name: "uhd", title: "Film.UHD.BluRay", want: TagP4K},
		{name: "4k wins over 1080", title: "Movie 2160p remux from 1080p source", want: TagP4K},
		{name: "720p is other", title: "Movie.720p.x264", want: TagOther},
		{name: "no marker", title: "Some Documentary", want: TagOther},
		{name: "empty", title: "", want: TagUnknown},
		{name: "whitespace", title: "   ", want: TagUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.title))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	title := "Movie.2020.1080p"
	assert.Equal(t, Classify(title), Classify(title))
}

func TestResolutionMatches(t *testing.T) {
	tags := []Tag{TagUnknown, TagOther, TagP1080, TagP4K}
	for _, tag := range tags {
		assert.True(t, ResAny.Matches(tag), "any should match %s", tag)
	}
	assert.True(t, Res1080p.Matches(TagP1080))
	assert.False(t, Res1080p.Matches(TagP4K))
	assert.False(t, Res1080p.Matches(TagOther))
	assert.True(t, Res4K.Matches(TagP4K))
	assert.False(t, Res4K.Matches(TagP1080))
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in      string
		want    Resolution
		wantErr bool
	}{
		{in: "", want: ResAny},
		{in: "any", want: ResAny},
		{in: "1080p", want: Res1080p},
		{in: "1080", want: Res1080p},
		{in: "4K", want: Res4K},
		{in: "2160p", want: Res4K},
		{in: "720p", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseResolution(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("shows_hd")
	assert.NoError(t, err)
	assert.Equal(t, TVHD, c)

	c, err = ParseCategory("Movies")
	assert.NoError(t, err)
	assert.Equal(t, MoviesHD, c)

	_, err = ParseCategory("music")
	assert.Error(t, err)

	for c, name := range categoryNames {
		got, err := ParseCategory(c.String())
		assert.NoError(t, err)
		assert.Equal(t, c, got, name)
	}
}
