package indexer

import "testing"

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"collapses whitespace", "  Le   mandat\n\test  de sept ans ", "Le mandat est de sept ans"},
		{"rejoins broken words", "la consti-\ntution de la Répu- blique", "la constitution de la République"},
		{"keeps compound names", "la Guinée-Bissau et l'Afrique", "la Guinée-Bissau et l'Afrique"},
		{"keeps list dashes", "droits - devoirs", "droits - devoirs"},
		{"drops invisible characters", "\ufeffsouve\u00adraineté\u200b", "souveraineté"},
		{"normalizes apostrophes", "l\u2019État", "l'État"},
		{"empty", " \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
