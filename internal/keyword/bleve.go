package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/konsti/internal/models"
)

const (
	fieldConstitution = "constitution_id"
	fieldNumber       = "number"
	fieldContent      = "content"
	fieldTitle        = "title"
	fieldKeywords     = "keywords"

	deleteBatchSize = 1000
)

// articleDoc is the indexed form of an article.
type articleDoc struct {
	ConstitutionID string `json:"constitution_id"`
	Number         string `json:"number"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Category       string `json:"category"`
	Keywords       string `json:"keywords"`
}

// DocID is the index identifier of an article: constitution id and number joined by '#'.
func DocID(constitutionID, number string) string {
	return constitutionID + "#" + number
}

// ParseDocID splits an index identifier into constitution id and article number.
func ParseDocID(id string) (constitutionID, number string, ok bool) {
	i := strings.LastIndexByte(id, '#')
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// BleveIndex implements ArticleIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is reopened as is; remove the directory after changing the mapping.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize without stemming, so the term
	// dictionary holds real words for spelling suggestions.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldContent, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldTitle, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldKeywords, textFieldMapping)

	exactFieldMapping := bleve.NewTextFieldMapping()
	exactFieldMapping.Analyzer = keywordanalyzer.Name
	exactFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(fieldConstitution, exactFieldMapping)
	docMapping.AddFieldMappingsAt(fieldNumber, exactFieldMapping)
	docMapping.AddFieldMappingsAt("category", exactFieldMapping)

	im.AddDocumentMapping("article", docMapping)
	im.DefaultType = "article"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexArticles removes the constitution's previously indexed articles and indexes
// the given set in one batch.
func (b *BleveIndex) IndexArticles(ctx context.Context, constitutionID string, articles []models.Article) error {
	if err := b.DeleteConstitution(ctx, constitutionID); err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, a := range articles {
		doc := articleDoc{
			ConstitutionID: constitutionID,
			Number:         a.Number,
			Title:          a.Title,
			Content:        a.Content,
			Category:       a.Category,
			Keywords:       strings.Join(a.Keywords, " "),
		}
		if err := batch.Index(DocID(constitutionID, a.Number), doc); err != nil {
			return fmt.Errorf("failed to batch article %s: %w", a.Number, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index articles: %w", err)
	}
	return nil
}

// DeleteConstitution removes every indexed article of a constitution.
func (b *BleveIndex) DeleteConstitution(ctx context.Context, constitutionID string) error {
	for {
		q := bleve.NewTermQuery(constitutionID)
		q.SetField(fieldConstitution)
		req := bleve.NewSearchRequest(q)
		req.Size = deleteBatchSize
		results, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to find articles of %s: %w", constitutionID, err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete articles of %s: %w", constitutionID, err)
		}
	}
}

// Search runs a match query over content, title and keywords and returns up to limit hits.
// With opts.FuzzyEnabled each term is matched within opts.Fuzziness edits.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	var q blevequery.Query
	if opts != nil && opts.FuzzyEnabled {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		q = buildFuzzyQuery(query, fuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		cid, number, ok := ParseDocID(hit.ID)
		if !ok {
			continue
		}
		out = append(out, &Hit{ConstitutionID: cid, Number: number, Score: hit.Score})
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase letter/digit runs.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), isSeparator)
}

// buildFuzzyQuery ORs one fuzzy query per term; an empty term list falls back to a match query.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		return bleve.NewMatchQuery(queryStr)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the number of indexed articles.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// GetAllTerms returns the unique terms of the content and title fields.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	terms := make([]string, 0)
	seen := make(map[string]struct{})
	for _, field := range []string{fieldContent, fieldTitle} {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				terms = append(terms, entry.Term)
				seen[entry.Term] = struct{}{}
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// GetTermFrequency returns the number of articles whose content contains term.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	q := bleve.NewTermQuery(term)
	q.SetField(fieldContent)
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}
