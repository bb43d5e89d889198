package detect

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statement2sheet/s2s/internal/model"
)

const spanishStatement = `BBVA
Extracto de cuenta
Titular: Maria Garcia
Cuenta: ES9121000418450200051332
Periodo: 01/01/2024 - 31/01/2024
Fecha    Concepto                Importe    Saldo
02/01/2024  Transferencia recibida  1.200,00 €  3.450,00 €
15/01/2024  Recibo luz               -85,30 €  3.364,70 €
Saldo final: 3.364,70 EUR`

const englishStatement = `Chase
Account Statement
Statement Period: 01/01/2024 - 01/31/2024
Account Number: 123456789012
Routing: 021000021
Date       Description           Amount     Balance
01/03/2024 Direct Deposit        $2,500.00  $4,100.00
01/15/2024 Grocery Store         -$85.30    $4,014.70
Ending Balance: $4,014.70 USD`

func TestDetectLanguageTieBreak(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want model.Language
	}{
		{
			name: "empty text defaults to english",
			text: "",
			want: model.LanguageEnglish,
		},
		{
			name: "spanish vocabulary wins",
			text: "extracto de cuenta saldo movimientos titular importe",
			want: model.LanguageSpanish,
		},
		{
			name: "english vocabulary wins",
			text: "statement account balance transactions deposit withdrawal",
			want: model.LanguageEnglish,
		},
		{
			name: "equal scores go to english",
			// "statement" (3) vs "extracto" (3)
			text: "statement extracto",
			want: model.LanguageEnglish,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.detectLanguage(strings.ToLower(tt.text)))
		})
	}
}

func TestDetectKnownBankShortCircuit(t *testing.T) {
	d := New()

	// Minimal banking context plus a known bank name, in mixed case.
	result := d.Detect("Your bBvA statement balance account summary", "")
	require.NotNil(t, result)
	assert.Equal(t, "Bbva", result.Bank.BankName)
	assert.Contains(t, result.MatchedPatterns, "known_bank:bbva")
}

func TestDetectLowSignalRejection(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		file string
	}{
		{
			name: "empty input",
			text: "",
		},
		{
			name: "prose with no banking signal",
			text: "the quick brown fox jumps over the lazy dog again and again",
		},
		{
			name: "shopping list",
			text: "milk\neggs\nbread\napples",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, d.Detect(tt.text, tt.file))
		})
	}
}

func TestDetectConfidenceMonotonicity(t *testing.T) {
	d := New()

	base := "BBVA extracto de cuenta saldo movimientos"
	withAccount := base + "\nCuenta: ES9121000418450200051332"

	baseResult := d.Detect(base, "")
	require.NotNil(t, baseResult)
	accountResult := d.Detect(withAccount, "")
	require.NotNil(t, accountResult)

	assert.Greater(t, accountResult.Confidence, baseResult.Confidence,
		"adding a valid regional account number must strictly increase confidence")
}

func TestDetectIBANBeatsGenericNumber(t *testing.T) {
	d := New()

	iban := d.Detect("BBVA extracto de cuenta\nCuenta: ES9121000418450200051332", "")
	require.NotNil(t, iban)
	generic := d.Detect("BBVA extracto de cuenta\nCuenta: 1234567890", "")
	require.NotNil(t, generic)

	assert.Contains(t, iban.MatchedPatterns, "account_number:iban_es")
	assert.Contains(t, generic.MatchedPatterns, "account_number:generic")
	assert.Greater(t, iban.Confidence, generic.Confidence)
}

func TestDetectSpanishStatement(t *testing.T) {
	d := New()

	result := d.Detect(spanishStatement, "extracto_enero.pdf")
	require.NotNil(t, result)

	assert.Equal(t, "Bbva", result.Bank.BankName)
	assert.Equal(t, model.LanguageSpanish, result.Bank.Language)
	assert.Equal(t, "ES", result.Bank.Country)
	assert.Equal(t, "EUR", result.Bank.Currency)
	assert.Equal(t, "ES9121000418450200051332", result.Bank.AccountNumber)
	assert.NotEmpty(t, result.Bank.StatementPeriod)
	assert.Equal(t, model.DocumentTypeBankStatement, result.Bank.DocumentType)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestDetectEnglishStatement(t *testing.T) {
	d := New()

	result := d.Detect(englishStatement, "chase_jan.pdf")
	require.NotNil(t, result)

	assert.Equal(t, "Chase", result.Bank.BankName)
	assert.Equal(t, model.LanguageEnglish, result.Bank.Language)
	assert.Equal(t, "US", result.Bank.Country)
	assert.Equal(t, "USD", result.Bank.Currency)
	assert.Equal(t, "021000021", result.Bank.RoutingNumber)
	assert.Contains(t, result.MatchedPatterns, "routing_number")
}

func TestDetectDocumentType(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want model.DocumentType
	}{
		{
			name: "credit card beats default",
			text: "Chase credit card statement balance minimum payment account",
			want: model.DocumentTypeCreditCard,
		},
		{
			name: "savings account",
			text: "Chase savings account statement balance deposit",
			want: model.DocumentTypeSavings,
		},
		{
			name: "checking account",
			text: "Chase checking account statement balance withdrawal",
			want: model.DocumentTypeChecking,
		},
		{
			name: "default bank statement",
			text: "Chase account statement balance transactions",
			want: model.DocumentTypeBankStatement,
		},
		{
			name: "spanish credit card",
			text: "BBVA extracto tarjeta de crédito saldo movimientos límite de crédito",
			want: model.DocumentTypeCreditCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Detect(tt.text, "")
			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Bank.DocumentType)
		})
	}
}

func TestDetectCountryInference(t *testing.T) {
	d := New()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "spanish iban implies spain",
			text: "BBVA extracto de cuenta ES9121000418450200051332 saldo",
			want: "ES",
		},
		{
			name: "mexico marker",
			text: "BBVA extracto de cuenta saldo movimientos México",
			want: "MX",
		},
		{
			name: "argentina marker",
			text: "Santander extracto de cuenta saldo movimientos Argentina",
			want: "AR",
		},
		{
			name: "uk markers",
			text: "Barclays bank statement balance transactions United Kingdom GBP",
			want: "GB",
		},
		{
			name: "canada markers",
			text: "Scotiabank bank statement balance transactions Canada CAD",
			want: "CA",
		},
		{
			name: "english defaults to us",
			text: "Chase bank statement balance transactions deposit",
			want: "US",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.Detect(tt.text, "")
			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Bank.Country)
		})
	}
}

func TestDetectFilenameFallback(t *testing.T) {
	d := New()

	// Text carries banking structure but no institution name; the file name
	// carries a known bank.
	text := "account statement balance transactions deposit withdrawal account number: 123456789012"
	result := d.Detect(text, "wells_fargo_statement_jan.pdf")
	require.NotNil(t, result)
	assert.Equal(t, "Wells Fargo", result.Bank.BankName)
}

func TestDetectGenericInstitutionName(t *testing.T) {
	d := New()

	// Strong banking structure, no name anywhere: falls back to the
	// language-appropriate generic institution name.
	text := "account statement balance deposit withdrawal\naccount number: 123456789012\nending balance $4,014.70"
	result := d.Detect(text, "")
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Bank.BankName)
}

func TestDetectNeverPanicsOnGarbage(t *testing.T) {
	d := New()

	inputs := []string{
		strings.Repeat("\x00", 64),
		strings.Repeat("9", 5000),
		"\n\n\n\n",
		"€€€€ $$$$ £££",
		strings.Repeat("banco ", 2000),
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() {
			_ = d.Detect(input, "")
		})
	}
}

func TestYearPlausibility(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d := NewWithClock(func() time.Time { return fixed })

	tests := []struct {
		token string
		lang  model.Language
		ok    bool
	}{
		{"15/01/2024", model.LanguageSpanish, true},
		{"15/01/1999", model.LanguageSpanish, false},
		{"15/01/2026", model.LanguageSpanish, false},
		{"01/15/2025", model.LanguageEnglish, true},
		{"January 15, 2024", model.LanguageEnglish, true},
		{"15 de enero de 2024", model.LanguageSpanish, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, ok := d.parseDate(tt.token, tt.lang)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestExtractStatementPeriod(t *testing.T) {
	d := New()

	tests := []struct {
		name       string
		text       string
		lang       model.Language
		wantPeriod bool
		wantParsed bool
	}{
		{
			name:       "explicit english period",
			text:       "Statement Period: 01/01/2024 - 01/31/2024",
			lang:       model.LanguageEnglish,
			wantPeriod: true,
			wantParsed: true,
		},
		{
			name:       "spanish desde hasta",
			text:       "desde 01/01/2024 hasta 31/01/2024",
			lang:       model.LanguageSpanish,
			wantPeriod: true,
			wantParsed: true,
		},
		{
			name:       "spanish del al",
			text:       "del 01/01/2024 al 31/01/2024",
			lang:       model.LanguageSpanish,
			wantPeriod: true,
			wantParsed: true,
		},
		{
			name:       "fallback to scattered dates",
			text:       "02/01/2024 some entry\n15/01/2024 another\n29/01/2024 last",
			lang:       model.LanguageSpanish,
			wantPeriod: true,
			wantParsed: true,
		},
		{
			name:       "single date is not a period",
			text:       "02/01/2024 only one entry",
			lang:       model.LanguageSpanish,
			wantPeriod: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, start, end := d.extractStatementPeriod(tt.text, patternSetFor(tt.lang))
			if !tt.wantPeriod {
				assert.Empty(t, period)
				return
			}
			assert.NotEmpty(t, period)
			if tt.wantParsed {
				require.NotNil(t, start)
				require.NotNil(t, end)
				assert.True(t, periodPlausible(*start, *end))
			}
		})
	}
}

func TestCleanNameCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"first national", "first national"},
		{"12345", ""},
		{"ab", ""},
		{"statement", ""},
		{"your first national", "first national"},
		{"extracto", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanNameCandidate(tt.in), "input %q", tt.in)
	}
}
