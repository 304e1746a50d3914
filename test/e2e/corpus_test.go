package e2e

import (
	"testing"
)

func TestBuildCorpus_QueryTestCasesExist(t *testing.T) {
	c := BuildCorpus()
	if len(c.TestCases) == 0 {
		t.Fatal("expected at least one question case")
	}
	for i, tc := range c.TestCases {
		if tc.Question == "" {
			t.Errorf("case %d: empty question", i)
		}
		if tc.ExpectedArticle == "" {
			t.Errorf("case %d: no expected article", i)
		}
	}
}

func TestBuildCorpus_ExpectedArticlesExist(t *testing.T) {
	c := BuildCorpus()
	declared := make(map[string]bool)
	for _, n := range ArticleNumbers(c.Current) {
		declared[n] = true
	}
	if len(declared) != 6 {
		t.Errorf("current constitution declares %d articles, want 6", len(declared))
	}
	for _, tc := range c.TestCases {
		if !declared[tc.ExpectedArticle] {
			t.Errorf("%s: article %s not in the current constitution", tc.Description, tc.ExpectedArticle)
		}
	}
}
