package domain

import "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"

// ParsedEntity is the structured result of an extractor. It has exactly two
// implementations, *ParsedCard and *ParsedTransaction; absence is nil.
type ParsedEntity interface {
	parsedEntity()
}

// ParsedCard is a card extracted from free text.
type ParsedCard struct {
	Card domain.Card
	// ExtractedFromUser is false when the extractor found no real card data
	// in the text (for example a question about cards).
	ExtractedFromUser bool
}

// ParsedTransaction is a purchase extracted from free text. Product is set
// when the user named an item instead of (or in addition to) a price.
type ParsedTransaction struct {
	Transaction domain.Transaction
	Product     string
}

func (*ParsedCard) parsedEntity()        {}
func (*ParsedTransaction) parsedEntity() {}
