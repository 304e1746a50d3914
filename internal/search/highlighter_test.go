package search

import (
	"strings"
	"testing"
)

func TestHighlight(t *testing.T) {
	if Highlight("court", "mandat", 10) != "court" {
		t.Error("short content should be unchanged")
	}
	if Highlight("x", "x", 0) != "x" {
		t.Error("maxLen 0 should return as-is")
	}
	if got := Highlight("long texte ici", "absent", 4); got != "long..." {
		t.Errorf("no match should truncate the head, got %q", got)
	}
}

func TestHighlight_centersOnMatch(t *testing.T) {
	content := strings.Repeat("préambule ", 30) + "Le mandat du Président est de sept ans. " + strings.Repeat("suite ", 30)
	got := Highlight(content, "durée du mandat", 60)

	if !strings.Contains(got, "mandat du Président") {
		t.Errorf("excerpt misses the match: %q", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt cut marks missing: %q", got)
	}
	if n := len([]rune(strings.Trim(got, "."))); n > 60 {
		t.Errorf("excerpt has %d runes, want at most 60", n)
	}
}

func TestHighlight_caseAndAccents(t *testing.T) {
	content := strings.Repeat("x ", 100) + "ÉLECTION présidentielle"
	got := Highlight(content, "élection", 30)
	if !strings.Contains(got, "ÉLECTION") {
		t.Errorf("case-insensitive match failed: %q", got)
	}
	if strings.HasSuffix(got, "...") {
		t.Errorf("excerpt reaching the end should not be marked cut: %q", got)
	}
}

func TestHighlight_ignoresShortTerms(t *testing.T) {
	content := "de la " + strings.Repeat("y", 50) + " loi organique"
	got := Highlight(content, "de loi", 20)
	if !strings.Contains(got, "loi") {
		t.Errorf("expected the excerpt around %q, got %q", "loi", got)
	}
}
