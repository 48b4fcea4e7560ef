package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonesrussell/petition-pipeline/internal/domain"
	"github.com/jonesrussell/petition-pipeline/internal/glossary"
)

// minTagLen drops file-name fragments too short to be meaningful tags.
const minTagLen = 3

// fileNameStopwords are segments common in petition file names that carry no
// classification value.
var fileNameStopwords = map[string]bool{
	"peticao": true, "acao": true, "de": true, "do": true, "da": true,
	"o": true, "a": true, "e": true, "para": true, "com": true,
	"modelo": true, "inicial": true, "final": true, "peca": true,
	"docx": true, "doc": true, "pdf": true, "txt": true,
	"dr": true, "dra": true, "exmo": true, "sr": true, "sra": true,
	"no": true, "na": true, "em": true, "dos": true, "das": true,
	"rev": true, "atualizado": true, "finalizado": true, "versao": true,
	"v1": true, "v2": true, "v3": true,
}

var trailingDigits = regexp.MustCompile(`\d+$`)

// Tagger derives tags from file names and from content keywords. Content
// matching reuses the glossary automaton so a large keyword map stays a
// single pass over the text.
type Tagger struct {
	matcher  *glossary.Matcher
	keywords map[string][]string // normalized keyword -> tags
}

// NewTagger builds a tagger from a keyword->tags map. An empty map yields a
// tagger that only uses file names. Keys are canonicalized with the same
// normalization the matcher applies, so the names Match returns always hit
// the map.
func NewTagger(keywordTags map[string][]string) *Tagger {
	normalized := make(map[string][]string, len(keywordTags))
	terms := make([]string, 0, len(keywordTags))
	for kw, tags := range keywordTags {
		key := glossary.NormalizeTerm(kw)
		if key == "" {
			continue
		}
		normalized[key] = tags
		terms = append(terms, key)
	}
	return &Tagger{
		matcher:  glossary.NewMatcher(terms),
		keywords: normalized,
	}
}

// Tags returns the sorted unique tags for a document.
func (t *Tagger) Tags(fileName, content string) domain.EncodedList {
	found := make(map[string]bool)

	for _, tag := range fileNameTags(fileName) {
		found[tag] = true
	}
	if content != "" {
		for _, kw := range t.matcher.Match(content) {
			for _, tag := range t.keywords[kw] {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag != "" {
					found[tag] = true
				}
			}
		}
	}

	out := make(domain.EncodedList, 0, len(found))
	for tag := range found {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// fileNameTags splits a file name into underscore segments and keeps the
// ones that look like real tags: stopwords, short fragments and trailing
// version digits are stripped.
func fileNameTags(fileName string) []string {
	if fileName == "" {
		return nil
	}

	name := strings.ToLower(fileName)
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)

	var tags []string
	for _, part := range strings.Split(name, "_") {
		part = strings.TrimSpace(part)
		if part == "" || fileNameStopwords[part] || len(part) <= minTagLen-1 {
			continue
		}
		part = trailingDigits.ReplaceAllString(part, "")
		if len(part) >= minTagLen && !fileNameStopwords[part] {
			tags = append(tags, part)
		}
	}
	return tags
}
