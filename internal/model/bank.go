// Package model defines the core domain types shared across the application.
package model

// Language identifies which regional vocabulary a statement was written in.
type Language string

const (
	// LanguageSpanish selects the Spanish banking vocabulary and pattern set.
	LanguageSpanish Language = "es"
	// LanguageEnglish selects the English banking vocabulary and pattern set.
	LanguageEnglish Language = "en"
)

// DocumentType classifies what kind of statement a document is.
type DocumentType string

const (
	// DocumentTypeBankStatement is the default classification.
	DocumentTypeBankStatement DocumentType = "bank_statement"
	// DocumentTypeCreditCard indicates a credit card statement.
	DocumentTypeCreditCard DocumentType = "credit_card"
	// DocumentTypeSavings indicates a savings account statement.
	DocumentTypeSavings DocumentType = "savings"
	// DocumentTypeChecking indicates a checking account statement.
	DocumentTypeChecking DocumentType = "checking"
	// DocumentTypeUnknown is used when no classification applies.
	DocumentTypeUnknown DocumentType = "unknown"
)

// BankInfo is the detected identity of a statement's issuing institution.
type BankInfo struct {
	BankName        string
	Country         string // ISO-3166 alpha-2
	AccountNumber   string
	RoutingNumber   string
	SwiftCode       string
	Currency        string // ISO 4217 code or symbol
	StatementPeriod string // free-form "start - end"
	Language        Language
	DocumentType    DocumentType
}

// DetectedFeatures holds raw values extracted from the document text before
// they are assembled into a BankInfo.
type DetectedFeatures struct {
	AccountNumber   string
	Currency        string
	StatementPeriod string
	RoutingNumber   string
	SwiftCode       string
	HeaderMatches   int
}

// BankDetectionResult wraps a BankInfo with the confidence the detector has
// in it and an audit trail of the signals that contributed. A result is
// created fresh per detection call and never mutated afterwards.
type BankDetectionResult struct {
	Bank             BankInfo
	Confidence       float64 // in [0, 1]
	MatchedPatterns  []string
	DetectedFeatures DetectedFeatures
}
