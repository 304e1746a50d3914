package ranking

// RetrievalWeights holds the tier caps and scoring weights of the retriever.
// The values are hand-tuned; zero fields take the defaults.
type RetrievalWeights struct {
	// Tier caps
	EntityCap     int `yaml:"entity_cap"`     // default: 5
	ExpandedCap   int `yaml:"expanded_cap"`   // default: 5
	ThemeCap      int `yaml:"theme_cap"`      // default: 3
	SemanticCap   int `yaml:"semantic_cap"`   // default: 3
	ExhaustiveCap int `yaml:"exhaustive_cap"` // default: 3

	// Token selection
	MinWordLength    int `yaml:"min_word_length"`    // default: 3 (words strictly longer count)
	SemanticMaxTerms int `yaml:"semantic_max_terms"` // default: 5

	// Exhaustive scan
	WordWeight      float64 `yaml:"word_weight"`       // default: 1
	MainTopicBonus  float64 `yaml:"main_topic_bonus"`  // default: 2
	EntityWeight    float64 `yaml:"entity_weight"`     // default: 1
	KeywordWeight   float64 `yaml:"keyword_weight"`    // default: 1
	LengthBonusMax  float64 `yaml:"length_bonus_max"`  // default: 1.0
	LengthBonusUnit float64 `yaml:"length_bonus_unit"` // default: 1000 characters

	// Confidence
	ExactNumberConfidence float64 `yaml:"exact_number_confidence"` // default: 0.95
	FallbackConfidence    float64 `yaml:"fallback_confidence"`     // default: 0.1
}

// DefaultRetrievalWeights returns the default retrieval weights.
func DefaultRetrievalWeights() *RetrievalWeights {
	return &RetrievalWeights{
		EntityCap:     5,
		ExpandedCap:   5,
		ThemeCap:      3,
		SemanticCap:   3,
		ExhaustiveCap: 3,

		MinWordLength:    3,
		SemanticMaxTerms: 5,

		WordWeight:      1,
		MainTopicBonus:  2,
		EntityWeight:    1,
		KeywordWeight:   1,
		LengthBonusMax:  1.0,
		LengthBonusUnit: 1000,

		ExactNumberConfidence: 0.95,
		FallbackConfidence:    0.1,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RetrievalWeights) ApplyDefaults() {
	d := DefaultRetrievalWeights()

	setInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}

	setInt(&c.EntityCap, d.EntityCap)
	setInt(&c.ExpandedCap, d.ExpandedCap)
	setInt(&c.ThemeCap, d.ThemeCap)
	setInt(&c.SemanticCap, d.SemanticCap)
	setInt(&c.ExhaustiveCap, d.ExhaustiveCap)
	setInt(&c.MinWordLength, d.MinWordLength)
	setInt(&c.SemanticMaxTerms, d.SemanticMaxTerms)

	setFloat(&c.WordWeight, d.WordWeight)
	setFloat(&c.MainTopicBonus, d.MainTopicBonus)
	setFloat(&c.EntityWeight, d.EntityWeight)
	setFloat(&c.KeywordWeight, d.KeywordWeight)
	setFloat(&c.LengthBonusMax, d.LengthBonusMax)
	setFloat(&c.LengthBonusUnit, d.LengthBonusUnit)
	setFloat(&c.ExactNumberConfidence, d.ExactNumberConfidence)
	setFloat(&c.FallbackConfidence, d.FallbackConfidence)
}
