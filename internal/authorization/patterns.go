// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package authorization

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gebl/netbox-assistant/internal/logging"
)

// CompiledPattern is one endpoint pattern with its precedence.
type CompiledPattern struct {
	Original     string          // Pattern as configured
	Permission   PermissionLevel // Level granted on match
	Regex        *regexp.Regexp  // nil for exact and prefix patterns
	Precedence   int             // Lower wins
	IsExact      bool            // No wildcards
	IsPrefix     bool            // Single trailing "*"
	IsRecursive  bool            // Contains "**"
	PathSegments int
	LiteralChars int
}

// PatternEngine matches endpoint paths against compiled patterns in
// precedence order: exact, then prefix, then single-segment wildcards, then
// recursive wildcards. Within a class, longer literal text wins.
type PatternEngine struct {
	compiledPatterns []CompiledPattern
}

// NewPatternEngine creates an empty engine.
func NewPatternEngine() *PatternEngine {
	return &PatternEngine{}
}

// CompilePatterns replaces the engine's patterns.
func (pe *PatternEngine) CompilePatterns(patterns map[string]PermissionLevel) error {
	pe.compiledPatterns = make([]CompiledPattern, 0, len(patterns))

	for pattern, permission := range patterns {
		compiled, err := compilePattern(pattern, permission)
		if err != nil {
			return fmt.Errorf("failed to compile pattern '%s': %w", pattern, err)
		}
		pe.compiledPatterns = append(pe.compiledPatterns, compiled)
	}

	sort.SliceStable(pe.compiledPatterns, func(i, j int) bool {
		a, b := pe.compiledPatterns[i], pe.compiledPatterns[j]
		if a.Precedence != b.Precedence {
			return a.Precedence < b.Precedence
		}
		return a.Original < b.Original
	})

	logging.AuthorizationLogger.Debug("Compiled endpoint patterns", "pattern_count", len(pe.compiledPatterns))
	return nil
}

func compilePattern(pattern string, permission PermissionLevel) (CompiledPattern, error) {
	compiled := CompiledPattern{Original: pattern, Permission: permission}

	normalized := strings.Trim(pattern, "/")
	if normalized != "" {
		compiled.PathSegments = strings.Count(normalized, "/") + 1
	}
	literal := strings.ReplaceAll(normalized, "*", "")
	compiled.LiteralChars = len(literal)

	switch {
	case !strings.Contains(normalized, "*"):
		compiled.IsExact = true
		compiled.Precedence = 0 + (100 - compiled.PathSegments)

	case strings.Contains(normalized, "**"):
		compiled.IsRecursive = true
		compiled.Precedence = 3000 + (1000 - compiled.LiteralChars)
		expr := strings.ReplaceAll(regexp.QuoteMeta(normalized), `\*\*`, ".*")
		expr = strings.ReplaceAll(expr, `\*`, "[^/]*")
		regex, err := regexp.Compile("^" + expr + "$")
		if err != nil {
			return compiled, fmt.Errorf("invalid recursive pattern: %w", err)
		}
		compiled.Regex = regex

	case strings.HasSuffix(normalized, "*") && strings.Count(normalized, "*") == 1:
		compiled.IsPrefix = true
		compiled.Precedence = 1000 + (1000 - compiled.LiteralChars)

	default:
		compiled.Precedence = 2000 + (1000 - compiled.LiteralChars)
		expr := strings.ReplaceAll(regexp.QuoteMeta(normalized), `\*`, "[^/]*")
		regex, err := regexp.Compile("^" + expr + "$")
		if err != nil {
			return compiled, fmt.Errorf("invalid wildcard pattern: %w", err)
		}
		compiled.Regex = regex
	}

	return compiled, nil
}

// Match returns the permission of the highest-precedence pattern matching
// value, the pattern text, and whether anything matched.
func (pe *PatternEngine) Match(value string) (PermissionLevel, string, bool) {
	normalized := strings.Trim(value, "/")
	for _, pattern := range pe.compiledPatterns {
		if matchesPattern(normalized, pattern) {
			logging.AuthorizationLogger.Debug("Pattern matched",
				"value", value,
				"pattern", pattern.Original,
				"permission", pattern.Permission,
				"match_type", matchType(pattern))
			return pattern.Permission, pattern.Original, true
		}
	}
	return "", "", false
}

func matchesPattern(value string, pattern CompiledPattern) bool {
	normalized := strings.Trim(pattern.Original, "/")
	switch {
	case pattern.IsExact:
		return value == normalized
	case pattern.IsPrefix:
		return strings.HasPrefix(value, strings.TrimSuffix(normalized, "*"))
	case pattern.Regex != nil:
		return pattern.Regex.MatchString(value)
	}
	return false
}

func matchType(pattern CompiledPattern) string {
	switch {
	case pattern.IsExact:
		return "exact"
	case pattern.IsPrefix:
		return "prefix"
	case pattern.IsRecursive:
		return "recursive"
	}
	return "wildcard"
}

// Patterns returns the compiled patterns in match order.
func (pe *PatternEngine) Patterns() []CompiledPattern {
	return pe.compiledPatterns
}
