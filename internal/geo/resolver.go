// Package geo maps the dataset's country names to ISO 3166-1 alpha-3
// codes for the choropleth.
package geo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/biter777/countries"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/wonny/dietdash/pkg/httputil"
	"github.com/wonny/dietdash/pkg/logger"
)

// BlankCode is returned for names no source could resolve
const BlankCode = " "

// Resolution sources
const (
	SourceOverride = "override"
	SourceExact    = "exact"
	SourceFuzzy    = "fuzzy"
	SourceRemote   = "remote"
	SourceNone     = "none"
)

// overrides are dataset spellings the country database gets wrong or
// misses. They always win.
var overrides = map[string]string{
	"Iran (Islamic Republic of)":         "IRN",
	"Korea, North":                       "PRK",
	"Korea, South":                       "KOR",
	"Taiwan*":                            "TWN",
	"Venezuela (Bolivarian Republic of)": "VEN",
}

// Resolution is the outcome of one lookup
type Resolution struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Source string `json:"source"`
}

// Resolver resolves country names, memoizing every answer.
// Safe for concurrent use.
type Resolver struct {
	log       *logger.Logger
	client    *httputil.Client // nil disables the remote lookup
	remoteURL string

	names []string
	codes []string

	mu   sync.Mutex
	memo map[string]Resolution
}

// NewResolver builds a resolver over the embedded country database.
// A non-nil client enables the remote REST Countries lookup at remoteURL.
func NewResolver(log *logger.Logger, client *httputil.Client, remoteURL string) *Resolver {
	if log == nil {
		log = logger.Nop()
	}

	all := countries.All()
	r := &Resolver{
		log:       log.Component("geo"),
		client:    client,
		remoteURL: strings.TrimRight(remoteURL, "/"),
		names:     make([]string, 0, len(all)),
		codes:     make([]string, 0, len(all)),
		memo:      make(map[string]Resolution),
	}
	for _, c := range all {
		code := c.Alpha3()
		if len(code) != 3 {
			continue
		}
		r.names = append(r.names, c.String())
		r.codes = append(r.codes, code)
	}
	return r
}

// Resolve returns the alpha-3 code of name, or BlankCode
func (r *Resolver) Resolve(ctx context.Context, name string) string {
	return r.Lookup(ctx, name).Code
}

// Lookup resolves name and reports which source answered
func (r *Resolver) Lookup(ctx context.Context, name string) Resolution {
	r.mu.Lock()
	if res, ok := r.memo[name]; ok {
		r.mu.Unlock()
		return res
	}
	r.mu.Unlock()

	res := r.lookup(ctx, name)

	r.mu.Lock()
	r.memo[name] = res
	r.mu.Unlock()

	if res.Source == SourceNone {
		r.log.WithField("country", name).Warn("Country code not resolved")
	}
	return res
}

func (r *Resolver) lookup(ctx context.Context, name string) Resolution {
	res := Resolution{Name: name, Code: BlankCode, Source: SourceNone}

	if code, ok := overrides[name]; ok {
		res.Code, res.Source = code, SourceOverride
		return res
	}

	if c := countries.ByName(name); c != countries.Unknown {
		if code := c.Alpha3(); len(code) == 3 {
			res.Code, res.Source = code, SourceExact
			return res
		}
	}

	if code, ok := r.fuzzy(name); ok {
		res.Code, res.Source = code, SourceFuzzy
		return res
	}

	if code, ok := r.wordMatch(name); ok {
		res.Code, res.Source = code, SourceFuzzy
		return res
	}

	if r.client != nil {
		code, err := r.remote(ctx, name)
		if err != nil {
			r.log.WithError(err).WithField("country", name).Warn("Remote country lookup failed")
		} else {
			res.Code, res.Source = code, SourceRemote
			return res
		}
	}

	return res
}

// fuzzy ranks every database name containing name's letters in order
// and keeps the closest
func (r *Resolver) fuzzy(name string) (string, bool) {
	if strings.TrimSpace(name) == "" {
		return "", false
	}

	ranks := fuzzy.RankFindNormalizedFold(name, r.names)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)

	best := ranks[0]
	r.log.WithFields(map[string]interface{}{
		"country":  name,
		"match":    best.Target,
		"distance": best.Distance,
	}).Debug("Fuzzy country match")

	return r.codes[best.OriginalIndex], true
}

// minWordScore is the share of words two names must exceed in common.
// Half is too loose: "Guinea Nowhere" would take Guinea.
const minWordScore = 0.5

// stopWords carry no identity in country names
var stopWords = map[string]bool{"of": true, "the": true, "and": true}

// wordMatch compares names as word sets, so reordered names such as
// "United Republic of Tanzania" still find "Tanzania (United Republic
// of)". The score is shared words over the longer word list; a tie for
// the best score is no match.
func (r *Resolver) wordMatch(name string) (string, bool) {
	query := words(name)
	if len(query) == 0 {
		return "", false
	}

	bestScore, best, tied := 0.0, -1, false
	for i, candidate := range r.names {
		cw := words(candidate)
		if len(cw) == 0 {
			continue
		}

		shared := 0
		for _, q := range query {
			for _, c := range cw {
				if sameWord(q, c) {
					shared++
					break
				}
			}
		}
		score := float64(shared) / float64(max(len(query), len(cw)))

		switch {
		case score > bestScore:
			bestScore, best, tied = score, i, false
		case score == bestScore && best >= 0 && r.codes[i] != r.codes[best]:
			tied = true
		}
	}

	if best < 0 || tied || bestScore <= minWordScore {
		return "", false
	}

	r.log.WithFields(map[string]interface{}{
		"country": name,
		"match":   r.names[best],
		"score":   bestScore,
	}).Debug("Word-set country match")

	return r.codes[best], true
}

// words splits s into lowercase words without stop words
func words(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return !unicode.IsLetter(c)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

// sameWord tolerates one edit in longer words
func sameWord(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 5 || len(b) < 5 {
		return false
	}
	return fuzzy.LevenshteinDistance(a, b) <= 1
}

type restCountry struct {
	CCA3 string `json:"cca3"`
}

func (r *Resolver) remote(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/name/%s?fields=cca3", r.remoteURL, url.PathEscape(name))

	var out []restCountry
	if err := r.client.GetJSON(ctx, endpoint, &out); err != nil {
		return "", err
	}
	for _, c := range out {
		if len(c.CCA3) == 3 {
			return strings.ToUpper(c.CCA3), nil
		}
	}
	return "", fmt.Errorf("no alpha-3 code for %q", name)
}

// Resolutions returns every memoized lookup sorted by name
func (r *Resolver) Resolutions() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Resolution, 0, len(r.memo))
	for _, res := range r.memo {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
