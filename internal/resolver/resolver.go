// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// resolver.go - Fuzzy mapping of user supplied URLs and names to catalog endpoints.
//
// A query is compared against every known path and, independently, every
// known name using difflib's SequenceMatcher ratio over characters. Only the
// single best candidate at or above the cutoff is kept per side. A path-side
// hit always wins over a name-side hit.

package resolver

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/gebl/netbox-assistant/internal/catalog"
	"github.com/gebl/netbox-assistant/internal/logging"
)

// DefaultCutoff is the minimum similarity ratio for a candidate to count.
const DefaultCutoff = 0.6

// Status tags a Result.
type Status string

const (
	StatusSupported          Status = "supported"
	StatusUnsupported        Status = "unsupported"
	StatusCatalogUnavailable Status = "catalog_unavailable"
)

// Result is the outcome of resolving one query. Which fields are set depends
// on Status: ResolvedPath/ResolvedName for supported, OriginalQuery for
// unsupported, Reason for catalog_unavailable.
type Result struct {
	Status        Status `json:"status"`
	ResolvedPath  string `json:"closest_url,omitempty"`
	ResolvedName  string `json:"closest_name,omitempty"`
	OriginalQuery string `json:"query,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Supported reports whether the query resolved to an endpoint.
func (r Result) Supported() bool { return r.Status == StatusSupported }

// Message is a one-line human description of the result.
func (r Result) Message() string {
	switch r.Status {
	case StatusSupported:
		if r.ResolvedName != "" {
			return "Supported: " + r.ResolvedName + " (" + r.ResolvedPath + ")"
		}
		return "Supported: " + r.ResolvedPath
	case StatusCatalogUnavailable:
		return "Endpoint catalog unavailable: " + r.Reason
	default:
		return "The input '" + r.OriginalQuery + "' is not supported."
	}
}

// Source provides the current catalog. *catalog.Store satisfies it.
type Source interface {
	Descriptors() ([]catalog.EndpointDescriptor, error)
}

// Resolver matches queries against a catalog Source.
type Resolver struct {
	source Source
	cutoff float64
}

// New returns a Resolver using DefaultCutoff.
func New(source Source) *Resolver {
	return &Resolver{source: source, cutoff: DefaultCutoff}
}

// Resolve maps query to the closest known endpoint.
func (r *Resolver) Resolve(query string) Result {
	logger := logging.ResolverLogger

	descriptors, err := r.source.Descriptors()
	if err != nil {
		logger.Warn("Resolution without catalog", "query", query, "error", err)
		return Result{Status: StatusCatalogUnavailable, OriginalQuery: query, Reason: err.Error()}
	}
	if query == "" {
		return Result{Status: StatusUnsupported, OriginalQuery: query}
	}

	paths := make([]string, 0, len(descriptors))
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		paths = append(paths, d.Path)
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}

	if path, ok := closestMatch(query, paths, r.cutoff); ok {
		for _, d := range descriptors {
			if d.Path == path {
				logger.Debug("Resolved by path", "query", query, "path", d.Path)
				return Result{Status: StatusSupported, ResolvedPath: d.Path, ResolvedName: d.Name}
			}
		}
	}

	if name, ok := closestMatch(query, names, r.cutoff); ok {
		for _, d := range descriptors {
			if d.Name == name {
				logger.Debug("Resolved by name", "query", query, "name", d.Name, "path", d.Path)
				return Result{Status: StatusSupported, ResolvedPath: d.Path, ResolvedName: d.Name}
			}
		}
	}

	logger.Debug("No close match", "query", query, "endpoints", len(descriptors))
	return Result{Status: StatusUnsupported, OriginalQuery: query}
}

type scored struct {
	value string
	score float64
}

// closestMatch returns the best candidate whose ratio against query is at
// least cutoff. Ties go to the lexicographically greater candidate, the same
// order difflib's get_close_matches yields.
func closestMatch(query string, candidates []string, cutoff float64) (string, bool) {
	target := chars(query)
	var hits []scored
	for _, c := range candidates {
		m := difflib.NewMatcher(chars(c), target)
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		if ratio := m.Ratio(); ratio >= cutoff {
			hits = append(hits, scored{value: c, score: ratio})
		}
	}
	if len(hits) == 0 {
		return "", false
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].value > hits[j].value
	})
	return hits[0].value, true
}

// chars splits s into one element per rune.
func chars(s string) []string {
	return strings.Split(s, "")
}

// Similarity exposes the ratio used by Resolve, mainly for diagnostics.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}
