package indexer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/konsti/internal/models"
)

// MinArticleContent is the shortest trimmed content kept as an article.
const MinArticleContent = 10

// HeaderPattern recognizes an article header line. Group 1 is the article
// number, the optional group 2 is text following the header on the same line.
type HeaderPattern struct {
	Name string
	Re   *regexp.Regexp
}

const numberGroup = `([\p{L}\d]+)`

// DefaultHeaderPatterns are tried in order; the first match wins for a line.
var DefaultHeaderPatterns = []HeaderPattern{
	{"colon", regexp.MustCompile(`(?i)^article\s+` + numberGroup + `\s*:\s*(.*)$`)},
	{"dash", regexp.MustCompile(`(?i)^article\s+` + numberGroup + `\s*[-–—]\s*(.*)$`)},
	{"period", regexp.MustCompile(`(?i)^article\s+` + numberGroup + `\s*\.\s*(.*)$`)},
	{"paren", regexp.MustCompile(`(?i)^article\s*\(\s*` + numberGroup + `\s*\)\s*[:.\-–—]?\s*(.*)$`)},
	{"abbrev", regexp.MustCompile(`(?i)^art\.\s*` + numberGroup + `\s*[:.\-–—]?\s*(.*)$`)},
	{"bare", regexp.MustCompile(`(?i)^article\s+` + numberGroup + `\s*$`)},
}

var structurePatterns = []struct {
	level int
	kind  string
	re    *regexp.Regexp
}{
	{1, "titre", regexp.MustCompile(`(?i)^(titre|partie)\s+([ivxlc]+|\d+|premier|préliminaire|preliminaire)\b`)},
	{2, "chapitre", regexp.MustCompile(`(?i)^chapitre\s+([ivxlc]+|\d+|premier|préliminaire|preliminaire)\b`)},
	{3, "section", regexp.MustCompile(`(?i)^section\s+([ivxlc]+|\d+|premi[eè]re?)\b`)},
}

// What may follow the numeral of a heading: nothing, or a separator and a title.
var headingTail = regexp.MustCompile(`^\s*(?:$|[:.\-–—]\s*\S)`)

// Inline headers found after sentence punctuation, for extractions that lost line breaks.
var inlineHeader = regexp.MustCompile(`(?i)([.;!?»])\s+(article\s+(?:\d+|1er|premier)\s*[:\-–—])`)

// Document is the segmented form of a constitution text.
type Document struct {
	Articles  []models.Article
	Structure []models.StructureNode
}

// Segmenter splits constitution text into articles.
type Segmenter struct {
	patterns   []HeaderPattern
	minContent int
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithHeaderPatterns replaces the ordered header pattern list.
func WithHeaderPatterns(p []HeaderPattern) SegmenterOption {
	return func(s *Segmenter) { s.patterns = p }
}

// WithMinContent sets the minimum article content length in characters.
func WithMinContent(n int) SegmenterOption {
	return func(s *Segmenter) { s.minContent = n }
}

// NewSegmenter creates a Segmenter using DefaultHeaderPatterns.
func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{patterns: DefaultHeaderPatterns, minContent: MinArticleContent}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment splits raw text into articles using the default segmenter.
func Segment(raw string) []models.Article {
	return NewSegmenter().Segment(raw)
}

// Segment returns the articles of raw, deduplicated by number (first occurrence
// wins), sorted numerically and with noise blocks dropped. Text without any
// header yields an empty slice.
func (s *Segmenter) Segment(raw string) []models.Article {
	return s.SegmentDocument(raw).Articles
}

type block struct {
	number  string
	lines   []string
	part    string
	chapter string
	section string
	nodes   [3]int
}

// SegmentDocument returns the articles of raw together with the titre,
// chapitre and section headings that group them.
func (s *Segmenter) SegmentDocument(raw string) *Document {
	doc := &Document{Articles: []models.Article{}, Structure: []models.StructureNode{}}
	if strings.TrimSpace(raw) == "" {
		return doc
	}
	blocks, nodes := s.scan(raw)
	if len(blocks) == 0 {
		blocks, nodes = s.scan(inlineHeader.ReplaceAllString(raw, "$1\n$2"))
	}

	seen := make(map[string]bool)
	var kept []*block
	for i := range blocks {
		b := &blocks[i]
		if b.number == "" || seen[b.number] {
			continue
		}
		content := Preprocess(strings.Join(b.lines, " "))
		if utf8.RuneCountInString(content) < s.minContent {
			continue
		}
		seen[b.number] = true
		b.lines = []string{content}
		kept = append(kept, b)
	}

	for _, b := range kept {
		for _, idx := range b.nodes {
			if idx < 0 {
				continue
			}
			n := &nodes[idx]
			if n.StartArticle == "" {
				n.StartArticle = b.number
			}
			n.EndArticle = b.number
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return lessNumber(kept[i].number, kept[j].number) })
	for i, b := range kept {
		content := b.lines[0]
		doc.Articles = append(doc.Articles, models.Article{
			Number:   b.number,
			Content:  content,
			Part:     b.part,
			Chapter:  b.chapter,
			Section:  b.section,
			Category: Categorize(content),
			Keywords: ExtractKeywords(content),
			Position: i,
			IsActive: true,
		})
	}
	doc.Structure = nodes
	return doc
}

func (s *Segmenter) scan(raw string) ([]block, []models.StructureNode) {
	var (
		blocks  []block
		nodes   = []models.StructureNode{}
		current = -1
		heading [3]string
		open    = [3]int{-1, -1, -1}
		titled  = true
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if level, kind, ok := matchStructure(line, current >= 0); ok {
			nodes = append(nodes, models.StructureNode{Level: level, Kind: kind, Title: line})
			heading[level-1] = line
			open[level-1] = len(nodes) - 1
			for l := level; l < 3; l++ {
				heading[l] = ""
				open[l] = -1
			}
			current = -1
			titled = false
			continue
		}
		if number, rest, ok := s.matchHeader(line); ok {
			blocks = append(blocks, block{
				number:  number,
				part:    heading[0],
				chapter: heading[1],
				section: heading[2],
				nodes:   open,
			})
			current = len(blocks) - 1
			if rest != "" {
				blocks[current].lines = append(blocks[current].lines, rest)
			}
			continue
		}
		switch {
		case current >= 0:
			blocks[current].lines = append(blocks[current].lines, line)
		case !titled:
			// "TITRE II" is usually followed by its name on the next line
			nodes[len(nodes)-1].Title += " " + line
			titled = true
		}
	}
	return blocks, nodes
}

func (s *Segmenter) matchHeader(line string) (number, rest string, ok bool) {
	for _, p := range s.patterns {
		m := p.Re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(m) > 2 {
			rest = strings.TrimSpace(m[2])
		}
		return normalizeNumber(m[1]), rest, true
	}
	return "", "", false
}

// matchStructure reports whether line is a titre, chapitre or section
// heading. Text wrapped from a sentence ("Titre V de la présente
// Constitution.") must not close the article it belongs to, so the numeral
// has to end the line or be followed by a separator, unless the whole line
// is in capitals. Inside an article the keyword itself must be in capitals.
func matchStructure(line string, inArticle bool) (int, string, bool) {
	upper := strings.ToUpper(line) == line
	for _, p := range structurePatterns {
		loc := p.re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if !upper && !headingTail.MatchString(line[loc[1]:]) {
			return 0, "", false
		}
		if inArticle {
			keyword := strings.Fields(line)[0]
			if strings.ToUpper(keyword) != keyword {
				return 0, "", false
			}
		}
		return p.level, p.kind, true
	}
	return 0, "", false
}

// normalizeNumber maps "1er" and "premier" to "1", strips leading zeros and
// returns "" for anything that is not a positive integer.
func normalizeNumber(raw string) string {
	n := strings.ToLower(raw)
	if n == "1er" || n == "premier" {
		return "1"
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return ""
		}
	}
	n = strings.TrimLeft(n, "0")
	return n
}

// lessNumber orders canonical decimal strings numerically.
func lessNumber(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
