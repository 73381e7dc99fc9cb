package scraper

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hbollon/go-edlib"

	"github.com/litescript/magnet-finder/internal/logging"
	"github.com/litescript/magnet-finder/internal/metrics"
)

// DefaultMaxResults caps the list handed to callers.
const DefaultMaxResults = 100

// Status explains why a search ended the way it did.
type Status string

const (
	StatusFound       Status = "found"
	StatusNoResults   Status = "no_results"
	StatusUnreachable Status = "unreachable"
)

// Stage is how far a single attempt got.
type Stage string

const (
	StageFetch Stage = "fetch" // transport failed
	StageParse Stage = "parse" // body unreadable or empty
	StageOK    Stage = "ok"
)

// Attempt records one endpoint try, in order.
type Attempt struct {
	Mode     Mode
	URL      string
	Stage    Stage
	Count    int // records parsed, before filtering
	Err      error
	Duration time.Duration
}

// Outcome is the full account of a search.
type Outcome struct {
	SearchID string
	Query    Query
	Results  []Result
	Status   Status
	Attempts []Attempt
}

// Pipeline walks the endpoint registry until one endpoint yields results.
// It holds no per-search state and may be shared across goroutines.
type Pipeline struct {
	Registry   *Registry
	Fetcher    Fetcher
	MaxResults int
	Metrics    *metrics.Metrics
}

// NewPipeline wires a pipeline with an HTTP fetcher.
func NewPipeline(reg *Registry, timeouts Timeouts, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		Registry:   reg,
		Fetcher:    NewHTTPFetcher(nil, timeouts),
		MaxResults: DefaultMaxResults,
		Metrics:    m,
	}
}

// Search returns the filtered, seeder-sorted results for q, or an empty
// list. "Nothing found" and "nothing reachable" look the same here; use
// Trace to tell them apart.
func (p *Pipeline) Search(ctx context.Context, q Query) []Result {
	return p.Trace(ctx, q).Results
}

// Trace runs the search and reports every attempt along with the final
// status.
func (p *Pipeline) Trace(ctx context.Context, q Query) Outcome {
	out := Outcome{
		SearchID: uuid.NewString(),
		Query:    q,
		Results:  []Result{},
		Status:   StatusNoResults,
	}

	text := strings.TrimSpace(q.Text)
	if text == "" || p.Registry == nil || p.Fetcher == nil {
		p.Metrics.ObserveSearch(string(out.Status), 0)
		return out
	}

	answered := false
	var found []Result

walk:
	for _, mode := range []Mode{ModeJSON, ModeHTML} {
		for _, u := range p.Registry.URLs(mode, q) {
			if ctx.Err() != nil {
				break walk
			}

			a := p.attempt(ctx, mode, u)
			a.logTo(out.SearchID)
			out.Attempts = append(out.Attempts, a.Attempt)
			p.Metrics.ObserveAttempt(mode.String(), string(a.Stage), a.Duration)

			if a.Stage != StageFetch {
				answered = true
			}
			if a.Stage == StageOK {
				found = a.results
				break walk
			}
		}
	}

	if len(found) > 0 {
		out.Results = p.finish(found, q)
	}

	switch {
	case len(out.Results) > 0:
		out.Status = StatusFound
	case answered:
		out.Status = StatusNoResults
	case len(out.Attempts) > 0 || ctx.Err() != nil:
		out.Status = StatusUnreachable
	}

	logging.Info().
		Str("search_id", out.SearchID).
		Str("query", text).
		Str("category", q.Category.String()).
		Str("resolution", q.Resolution.String()).
		Str("status", string(out.Status)).
		Int("attempts", len(out.Attempts)).
		Int("results", len(out.Results)).
		Msg("search finished")
	p.Metrics.ObserveSearch(string(out.Status), len(out.Results))
	return out
}

type attemptResult struct {
	Attempt
	results []Result
}

func (p *Pipeline) attempt(ctx context.Context, mode Mode, u string) attemptResult {
	start := time.Now()
	a := attemptResult{Attempt: Attempt{Mode: mode, URL: u}}

	raw := p.Fetcher.Fetch(ctx, mode, u)
	a.Duration = time.Since(start)
	if !raw.OK {
		a.Stage = StageFetch
		a.Err = raw.Err
		if a.Err == nil {
			a.Err = &FetchError{URL: u, Kind: KindNetwork, Err: errors.New("no response")}
		}
		return a
	}

	results, err := Parse(mode, raw.Body)
	a.Count = len(results)
	if err != nil || len(results) == 0 {
		a.Stage = StageParse
		a.Err = err
		return a
	}

	for i := range results {
		results[i].Source = u
	}
	a.Stage = StageOK
	a.results = results
	return a
}

func (a attemptResult) logTo(searchID string) {
	ev := logging.Debug().
		Str("search_id", searchID).
		Str("mode", a.Mode.String()).
		Str("url", a.URL).
		Str("stage", string(a.Stage)).
		Int("count", a.Count).
		Dur("took", a.Duration)
	if a.Err != nil {
		ev = ev.Err(a.Err)
	}
	ev.Msg("attempt")
}

// finish filters by resolution, sorts by seeders and truncates.
func (p *Pipeline) finish(results []Result, q Query) []Result {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if q.Resolution.Matches(r.Tag) {
			kept = append(kept, r)
		}
	}

	slices.SortStableFunc(kept, func(a, b Result) int {
		return b.Seeders - a.Seeders
	})

	qLower := strings.ToLower(strings.TrimSpace(q.Text))
	for i := range kept {
		kept[i].Relevance = Relevance(kept[i].Title, qLower)
	}

	limit := p.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// Relevance scores how closely a release title matches the query text, using
// bigram Jaccard similarity over the lowercased title with dots as spaces.
func Relevance(title, query string) float32 {
	t := strings.ReplaceAll(strings.ToLower(title), ".", " ")
	q := strings.ToLower(query)
	if t == "" || q == "" {
		return 0
	}
	return edlib.JaccardSimilarity(t, q, 2)
}
