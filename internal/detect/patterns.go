// Package detect implements the heuristic bank identity detector that scores
// raw statement text extracted by OCR.
package detect

import (
	"regexp"

	"github.com/statement2sheet/s2s/internal/model"
)

// WeightedKeyword pairs a vocabulary token with its language-score weight.
// Presence is what counts, not the number of occurrences.
type WeightedKeyword struct {
	Keyword string
	Weight  float64
}

// PatternSet bundles the regional vocabulary and compiled patterns used for
// one statement language. The two instances below are immutable; Detect picks
// one after language classification and uses it for the rest of the run.
type PatternSet struct {
	Language          model.Language
	Keywords          []WeightedKeyword
	AccountPatterns   []*regexp.Regexp
	CurrencyTokens    []string
	DefaultCurrency   string
	HeaderKeywords    []string
	PeriodPatterns    []*regexp.Regexp
	DatePatterns      []*regexp.Regexp
	BankWordPattern   *regexp.Regexp // "<name words> <bank keyword>"
	BankPrefixPattern *regexp.Regexp // "<bank keyword> <name words>", nil if unused
	CreditCardTerms   []string
	SavingsTerms      []string
	CheckingTerms     []string
	GenericBankName   string
}

var spanishPatterns = PatternSet{
	Language: model.LanguageSpanish,
	Keywords: []WeightedKeyword{
		{"extracto", 3}, {"cuenta", 2}, {"saldo", 2}, {"movimientos", 3},
		{"titular", 2}, {"oficina", 1.5}, {"fecha valor", 2}, {"importe", 2},
		{"transferencia", 1.5}, {"recibo", 1.5}, {"domiciliación", 2},
		{"periodo", 1.5}, {"banco", 1}, {"caja", 1}, {"tarjeta", 1},
		{"enero", 1}, {"febrero", 1}, {"marzo", 1}, {"abril", 1},
		{"mayo", 1}, {"junio", 1}, {"julio", 1}, {"agosto", 1},
		{"septiembre", 1}, {"octubre", 1}, {"noviembre", 1}, {"diciembre", 1},
	},
	AccountPatterns: []*regexp.Regexp{
		// Spanish IBAN, with or without spacing
		regexp.MustCompile(`(?i)\bES\d{2}[\s]?\d{4}[\s]?\d{4}[\s]?\d{2}[\s]?\d{10}\b`),
		regexp.MustCompile(`(?i)\bES\d{22}\b`),
		// Legacy CCC: entity-office-DC-account
		regexp.MustCompile(`\b\d{4}[\s-]\d{4}[\s-]\d{2}[\s-]\d{10}\b`),
		regexp.MustCompile(`(?i)(?:cuenta|nº cuenta|num\.? cuenta)[:\s]*(\d[\d\s]{8,28}\d)`),
	},
	CurrencyTokens:  []string{"€", "EUR", "euros", "euro"},
	DefaultCurrency: "EUR",
	HeaderKeywords: []string{
		"extracto de cuenta", "extracto bancario", "movimientos de cuenta",
		"resumen de movimientos", "detalle de movimientos", "estado de cuenta",
		"fecha", "concepto", "importe", "saldo",
	},
	PeriodPatterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)per[ií]odo[:\s]+(\S+)\s*(?:-|a|al)\s*(\S+)`),
		regexp.MustCompile(`(?i)desde\s+(\S+)\s+hasta\s+(\S+)`),
		regexp.MustCompile(`(?i)del\s+(\S+)\s+al\s+(\S+)`),
		regexp.MustCompile(`(?i)de\s+(\d{1,2}\s+de\s+\w+(?:\s+de\s+\d{4})?)\s+a\s+(\d{1,2}\s+de\s+\w+\s+de\s+\d{4})`),
	},
	DatePatterns: []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+de\s+(?:enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\s+de\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	},
	BankWordPattern:   regexp.MustCompile(`(?i)([\wáéíóúñ&']+(?:\s+[\wáéíóúñ&']+){0,3})\s+(banco|caja|entidad|cooperativa|mutua)\b`),
	BankPrefixPattern: regexp.MustCompile(`(?i)\b(banco|caja)\s+([\wáéíóúñ&']+(?:\s+[\wáéíóúñ&']+){0,2})`),
	CreditCardTerms: []string{"tarjeta de crédito", "tarjeta de credito", "crédito dispuesto", "límite de crédito", "limite de credito"},
	SavingsTerms:    []string{"cuenta de ahorro", "libreta de ahorro", "ahorros"},
	CheckingTerms:   []string{"cuenta corriente", "cuenta nómina", "cuenta nomina"},
	GenericBankName: "Entidad Bancaria",
}

var englishPatterns = PatternSet{
	Language: model.LanguageEnglish,
	Keywords: []WeightedKeyword{
		{"statement", 3}, {"account", 2}, {"balance", 2}, {"transactions", 3},
		{"deposit", 2}, {"withdrawal", 2}, {"beginning balance", 2.5},
		{"ending balance", 2.5}, {"available balance", 2}, {"checking", 1.5},
		{"savings", 1.5}, {"routing", 2}, {"branch", 1}, {"interest", 1},
		{"january", 1}, {"february", 1}, {"march", 1}, {"april", 1},
		{"may", 0.5}, {"june", 1}, {"july", 1}, {"august", 1},
		{"september", 1}, {"october", 1}, {"november", 1}, {"december", 1},
	},
	AccountPatterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)account\s*(?:number|no\.?|#)[:\s]*(\d[\d\s-]{6,20}\d)`),
		regexp.MustCompile(`(?i)\bacct[.:\s#]*(\d{7,17})\b`),
		regexp.MustCompile(`\b\d{9,17}\b`),
	},
	CurrencyTokens:  []string{"$", "USD", "£", "GBP", "CAD", "dollars"},
	DefaultCurrency: "USD",
	HeaderKeywords: []string{
		"account statement", "bank statement", "statement of account",
		"account summary", "transaction history", "account activity",
		"date", "description", "amount", "balance",
	},
	PeriodPatterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)statement\s+period[:\s]+(\S+)\s*(?:-|to|through)\s*(\S+)`),
		regexp.MustCompile(`(?i)from\s+(\S+)\s+(?:to|through)\s+(\S+)`),
		regexp.MustCompile(`(?i)for\s+the\s+period\s+(\S+)\s*(?:-|to)\s*(\S+)`),
		regexp.MustCompile(`(?i)((?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})\s*(?:-|to|through)\s*((?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})`),
	},
	DatePatterns: []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	},
	BankWordPattern:   regexp.MustCompile(`(?i)([\w&']+(?:\s+[\w&']+){0,3})\s+(bank|credit union|financial|trust)\b`),
	BankPrefixPattern: regexp.MustCompile(`(?i)\b(bank)\s+of\s+([\w&']+(?:\s+[\w&']+){0,2})`),
	CreditCardTerms: []string{"credit card", "card statement", "credit limit", "minimum payment", "payment due"},
	SavingsTerms:    []string{"savings account", "savings statement", "share savings"},
	CheckingTerms:   []string{"checking account", "checking statement", "share draft"},
	GenericBankName: "Financial Institution",
}

// patternSetFor returns the immutable pattern set for a language.
func patternSetFor(lang model.Language) *PatternSet {
	if lang == model.LanguageSpanish {
		return &spanishPatterns
	}
	return &englishPatterns
}

var (
	routingPattern = regexp.MustCompile(`(?i)routing[:\s]*(\d{9})`)
	swiftPattern   = regexp.MustCompile(`(?i)swift[:\s]*([A-Z0-9]{8}(?:[A-Z0-9]{3})?)\b`)
)
