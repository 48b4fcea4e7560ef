package glossary_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jonesrussell/petition-pipeline/internal/glossary"
)

func TestMatcher_Match(t *testing.T) {
	matcher := glossary.NewMatcher([]string{
		"usucapião",
		"pensão alimentícia",
		"direito de família",
		"lei",
	})

	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single term",
			text: "Trata-se de um caso de usucapião de imóvel rural.",
			want: []string{"usucapião"},
		},
		{
			name: "multi-word term and case insensitivity",
			text: "O Direito De Família rege a Pensão Alimentícia devida.",
			want: []string{"direito de família", "pensão alimentícia"},
		},
		{
			name: "whole word only",
			text: "A comissão eleitoral se reuniu.",
			want: []string{},
		},
		{
			name: "term adjacent to punctuation",
			text: "Aplica-se a lei, sem exceções.",
			want: []string{"lei"},
		},
		{
			name: "no matches",
			text: "Nenhuma menção a termos conhecidos aqui.",
			want: []string{},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := matcher.Match(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Match(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestMatcher_MatchResultIsSortedAndUnique(t *testing.T) {
	matcher := glossary.NewMatcher([]string{"usucapião", "posse", "usucapião"})

	got := matcher.Match("A posse antiga fundamenta o usucapião. Usucapião exige posse.")
	want := []string{"posse", "usucapião"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %v, want %v", got, want)
	}
	if matcher.TermCount() != 2 {
		t.Errorf("TermCount = %d, want 2 (duplicates collapsed)", matcher.TermCount())
	}
}

func TestMatcher_MatchReturnsCanonicalNames(t *testing.T) {
	matcher := glossary.NewMatcher([]string{"  Art. 5º  ", "dano moral"})

	got := matcher.Match("Conforme o art. 5º, configura-se dano moral.")
	want := []string{"art 5º", "dano moral"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match = %v, want canonical unpadded names %v", got, want)
	}
}

func TestNormalizeTerm(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Pensão Alimentícia", "pensão alimentícia"},
		{"  art. 5º ", "art 5º"},
		{"habeas-corpus", "habeas-corpus"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := glossary.NormalizeTerm(tc.in); got != tc.want {
			t.Errorf("NormalizeTerm(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadTerms(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glossario.tsv")

	content := "ID\tTermo Jurídico\tDefinição\n" +
		"1\tdireito de família\tRegras sobre relações familiares.\n" +
		"2\tUsucapião\tAquisição de propriedade pelo tempo.\n" +
		"3\t\tSem termo\n" +
		"4\t=ai(gerar)\tArtefato de planilha\n" +
		"5\tusucapião\tDuplicado\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write glossary fixture: %v", err)
	}

	terms, err := glossary.LoadTerms(path)
	if err != nil {
		t.Fatalf("LoadTerms returned error: %v", err)
	}

	want := []string{"direito de família", "usucapião"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("LoadTerms = %v, want %v", terms, want)
	}
}

func TestLoadTerms_MissingFile(t *testing.T) {
	if _, err := glossary.LoadTerms("/nonexistent/glossario.tsv"); err == nil {
		t.Fatal("expected error for missing glossary file")
	}
}
