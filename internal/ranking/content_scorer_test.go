package ranking

import (
	"testing"
)

func TestContentScorer_Occurrences(t *testing.T) {
	s := NewContentScorer(nil)
	content := "le président est élu. le président nomme le premier ministre."
	if got := s.Occurrences([]string{"président", "ministre"}, content); got != 3 {
		t.Errorf("Occurrences = %f, want 3", got)
	}
	if got := s.Occurrences([]string{""}, content); got != 0 {
		t.Errorf("empty keyword must not count, got %f", got)
	}
}

func TestContentScorer_Containment(t *testing.T) {
	s := NewContentScorer(nil)
	content := "le président est élu. le président nomme le premier ministre."
	if got := s.Containment([]string{"président", "ministre", "juge"}, content); got != 2 {
		t.Errorf("Containment = %f, want 2", got)
	}
}

func TestContentScorer_Exhaustive(t *testing.T) {
	s := NewContentScorer(nil)
	content := "le mandat du président est de sept ans, renouvelable une fois."
	sig := Signals{
		Words:     []string{"mandat", "durée"},
		MainTopic: "président",
		Entities:  []string{"président"},
		Keywords:  []string{"pouvoir", "mandat"},
	}
	// 1 word + 2 topic + 1 entity + 1 keyword + length bonus
	want := 5 + float64(len(content))/1000
	if got := s.Exhaustive(sig, content); got != want {
		t.Errorf("Exhaustive = %f, want %f", got, want)
	}
}

func TestContentScorer_ExhaustiveNoEvidence(t *testing.T) {
	s := NewContentScorer(nil)
	sig := Signals{Words: []string{"recette", "poulet"}}
	if got := s.Exhaustive(sig, "la souveraineté nationale appartient au peuple."); got != 0 {
		t.Errorf("content without evidence must score 0, got %f", got)
	}
}

func TestContentScorer_LengthBonusCapped(t *testing.T) {
	s := NewContentScorer(nil)
	if got := s.LengthBonus(5000); got != 1.0 {
		t.Errorf("LengthBonus(5000) = %f, want 1.0", got)
	}
	if got := s.LengthBonus(500); got != 0.5 {
		t.Errorf("LengthBonus(500) = %f, want 0.5", got)
	}
}
