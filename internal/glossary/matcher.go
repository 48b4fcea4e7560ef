// Package glossary matches domain terms from the legal glossary against
// document text using an Aho-Corasick automaton, a single O(n+m) pass
// regardless of glossary size.
package glossary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// termColumn is the glossary TSV column holding the term name.
const termColumn = 1

// spreadsheetArtifactPrefix marks half-evaluated formula rows exported from
// the source spreadsheet; such rows are skipped.
const spreadsheetArtifactPrefix = "=ai("

// Matcher finds glossary term names inside free text. Matching is
// case-insensitive and whole-word: "lei" never matches inside "eleitoral".
type Matcher struct {
	matcher *ahocorasick.Matcher
	terms   []string // normalized, parallel to the automaton patterns
}

// LoadTerms reads unique term names from a TSV glossary file. The first row
// is a header. Rows without a term column or carrying spreadsheet artifacts
// are skipped.
func LoadTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glossary %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	seen := make(map[string]bool)
	var terms []string
	header := true
	for {
		row, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read glossary %s: %w", path, readErr)
		}
		if header {
			header = false
			continue
		}
		if len(row) <= termColumn {
			continue
		}
		term := strings.ToLower(strings.TrimSpace(row[termColumn]))
		if term == "" || strings.HasPrefix(term, spreadsheetArtifactPrefix) {
			continue
		}
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms, nil
}

// NewMatcher builds a matcher over the given term names. Terms are
// normalized the same way document text is, so punctuation variants still
// match.
func NewMatcher(terms []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool)
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		term := NormalizeTerm(t)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		m.terms = append(m.terms, term)
		// One pair of spaces around the unpadded canonical term: the
		// normalized text collapses whitespace to single spaces, so a
		// single-padded pattern enforces whole-word matches while still
		// being able to occur in the text.
		patterns = append(patterns, " "+term+" ")
	}
	if len(patterns) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return m
}

// Match returns the sorted unique term names present in text. It never
// fails: nil or empty input yields an empty result.
func (m *Matcher) Match(text string) []string {
	if m.matcher == nil || text == "" {
		return []string{}
	}

	hits := m.matcher.Match([]byte(normalize(text)))
	found := make([]string, 0, len(hits))
	for _, hitIndex := range hits {
		if hitIndex < len(m.terms) {
			found = append(found, m.terms[hitIndex])
		}
	}
	sort.Strings(found)
	return found
}

// TermCount returns the number of distinct terms in the automaton.
func (m *Matcher) TermCount() int {
	return len(m.terms)
}

// NormalizeTerm returns the canonical form of a term: lowercase, punctuation
// folded to spaces, whitespace collapsed, no surrounding padding. Match
// returns terms in this form, so callers keying maps by term name must use
// the same normalization.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(normalize(term))
}

// normalize lowercases text, maps punctuation to spaces (hyphens survive, as
// they appear inside terms), collapses runs of whitespace, and pads the ends
// so every word sits between spaces.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	if !lastSpace {
		b.WriteByte(' ')
	}
	return b.String()
}
