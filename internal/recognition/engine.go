// Package recognition extracts structured invoice fields from raw document
// text using layout-aware pattern matching with a bounded correction loop.
package recognition

import "log"

// Identity is the canonical buyer all invoices in the corpus are issued to.
type Identity struct {
	CompanyName string
	TaxNumber   string
}

// Engine is the rule-based recognition engine. It is stateless per call and
// safe for concurrent use.
type Engine struct {
	ident       Identity
	maxAttempts int
}

// NewEngine creates a recognition engine for the given buyer identity.
// maxAttempts caps the total recognition passes, including the first.
func NewEngine(ident Identity, maxAttempts int) *Engine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Engine{ident: ident, maxAttempts: maxAttempts}
}

// Extract runs the full recognition pipeline over the raw text of one
// document. It never fails: unrecognized fields stay empty and the quality
// evaluator decides what to do with the result.
func (e *Engine) Extract(text string) FieldSet {
	invoiceType := Classify(text)
	p := profileFor(invoiceType)

	fs := FieldSet{
		InvoiceType:         invoiceType,
		RecognitionAttempts: 1,
	}

	extractNumber(text, p, &fs)
	extractDate(text, &fs)
	extractAmounts(text, p, &fs)
	extractCompanies(text, p, e.ident, &fs)
	extractTaxNumbers(text, e.ident, &fs)
	extractContent(text, p, &fs)

	return e.correct(text, p, fs)
}

// correct folds the looser retry patterns over the result until every
// critical field is recognized or the attempt budget runs out.
func (e *Engine) correct(text string, p *PatternProfile, fs FieldSet) FieldSet {
	missing := fs.MissingCritical()
	if len(missing) == 0 {
		return fs
	}
	log.Printf("recognition.Engine: unrecognized critical fields %v, starting correction", missing)

	for attempt := 2; attempt <= e.maxAttempts && len(missing) > 0; attempt++ {
		fs, missing = retryPass(text, p, e.ident, fs, missing)
		fs.RecognitionAttempts = attempt
	}

	if len(missing) > 0 {
		log.Printf("recognition.Engine: fields still unrecognized after %d attempts: %v", fs.RecognitionAttempts, missing)
	}
	return fs
}
