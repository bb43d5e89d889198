package detect

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/statement2sheet/s2s/internal/model"
)

// Detector scores raw statement text against regional banking vocabulary and
// produces a best-guess bank identity. It is stateless aside from the clock;
// concurrent Detect calls are fully independent.
type Detector struct {
	now func() time.Time
}

// New creates a bank detector.
func New() *Detector {
	return &Detector{now: time.Now}
}

// NewWithClock creates a detector with an injected clock for tests that need
// deterministic year-plausibility checks.
func NewWithClock(now func() time.Time) *Detector {
	return &Detector{now: now}
}

// nameOrigin records which extraction path produced the bank name, which in
// turn decides the name-quality confidence contribution.
type nameOrigin int

const (
	originNone nameOrigin = iota
	originKnownBank
	originPattern
	originFilename
	originGeneric
)

const (
	likelihoodThreshold = 0.5
	confidenceGate      = 0.25
)

// Detect analyzes extracted document text (and an optional file name) and
// returns the detected bank identity with an overall confidence, or nil when
// the signal is too weak to call this a bank statement. It never fails on
// malformed input; nil is the only "no detection" outcome.
func (d *Detector) Detect(documentText, fileName string) *model.BankDetectionResult {
	if strings.TrimSpace(documentText) == "" && fileName == "" {
		return nil
	}

	lower := strings.ToLower(documentText)
	lang := d.detectLanguage(lower)
	ps := patternSetFor(lang)

	var matched []string
	features := model.DetectedFeatures{}

	features.AccountNumber = d.extractAccountNumber(documentText, ps)
	features.Currency = d.extractCurrency(documentText, ps)
	features.HeaderMatches = d.countHeaderMatches(lower, ps)

	name, origin := d.extractBankName(documentText, lower, fileName, ps)
	if origin == originNone {
		likelihood := d.bankingLikelihood(lower, ps, features)
		slog.Debug("no bank name found, checking banking likelihood",
			"likelihood", likelihood, "language", lang)
		if likelihood < likelihoodThreshold {
			return nil
		}
		name, origin = d.nameFromDocumentStructure(documentText, ps)
	}

	confidence := 0.0

	// Bank-name quality
	switch origin {
	case originKnownBank:
		confidence += 0.4
		matched = append(matched, "known_bank:"+strings.ToLower(name))
	case originPattern:
		if containsBankKeyword(name) {
			confidence += 0.25
			matched = append(matched, "bank_keyword_name")
		} else if len(name) < 5 {
			confidence += 0.15
			matched = append(matched, "short_name")
		} else {
			confidence += 0.2
			matched = append(matched, "pattern_name")
		}
	case originFilename, originGeneric:
		confidence += 0.15
		matched = append(matched, "fallback_name")
	case originNone:
		// unreachable: likelihood path always assigns a name
	}

	// Account number
	if features.AccountNumber != "" {
		boost, label := d.scoreAccountNumber(features.AccountNumber, lang)
		confidence += boost
		matched = append(matched, label)
	}

	// Currency
	if features.Currency != "" {
		boost, label := d.scoreCurrency(features.Currency, ps)
		confidence += boost
		matched = append(matched, label)
	}

	// Statement period
	period, start, end := d.extractStatementPeriod(documentText, ps)
	features.StatementPeriod = period
	if period != "" {
		if start != nil && end != nil && periodPlausible(*start, *end) {
			confidence += 0.12
			matched = append(matched, "statement_period")
		} else {
			confidence += 0.05
			matched = append(matched, "statement_period_unparsed")
		}
	}

	// Header vocabulary
	if features.HeaderMatches > 0 {
		boost := float64(features.HeaderMatches) * 0.05
		if boost > 0.15 {
			boost = 0.15
		}
		confidence += boost
		matched = append(matched, fmt.Sprintf("header_keywords:%d", features.HeaderMatches))
	}

	// Routing number (English statements only)
	if lang == model.LanguageEnglish {
		if m := routingPattern.FindStringSubmatch(documentText); m != nil {
			features.RoutingNumber = m[1]
			confidence += 0.1
			matched = append(matched, "routing_number")
		}
	}

	// SWIFT/BIC
	if m := swiftPattern.FindStringSubmatch(documentText); m != nil {
		features.SwiftCode = strings.ToUpper(m[1])
		confidence += 0.1
		matched = append(matched, "swift_code")
	}

	if confidence < confidenceGate {
		slog.Debug("detection below confidence gate",
			"bank", name, "confidence", confidence)
		return nil
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	info := model.BankInfo{
		BankName:        name,
		Country:         d.inferCountry(lower, documentText, lang),
		AccountNumber:   features.AccountNumber,
		RoutingNumber:   features.RoutingNumber,
		SwiftCode:       features.SwiftCode,
		Currency:        d.resolveCurrency(features.Currency, ps),
		StatementPeriod: features.StatementPeriod,
		Language:        lang,
		DocumentType:    d.classifyDocumentType(lower, ps),
	}

	slog.Debug("bank detected",
		"bank", info.BankName,
		"country", info.Country,
		"confidence", confidence,
		"signals", len(matched))

	return &model.BankDetectionResult{
		Bank:             info,
		Confidence:       confidence,
		MatchedPatterns:  matched,
		DetectedFeatures: features,
	}
}

// detectLanguage sums keyword weights for each regional vocabulary over the
// lower-cased text; presence counts once per keyword. Spanish wins only on a
// strictly higher score, so ties go to English.
func (d *Detector) detectLanguage(lower string) model.Language {
	spanish := keywordScore(lower, spanishPatterns.Keywords)
	english := keywordScore(lower, englishPatterns.Keywords)
	if spanish > english {
		return model.LanguageSpanish
	}
	return model.LanguageEnglish
}

func keywordScore(lower string, keywords []WeightedKeyword) float64 {
	score := 0.0
	for _, kw := range keywords {
		if strings.Contains(lower, kw.Keyword) {
			score += kw.Weight
		}
	}
	return score
}

// extractBankName runs the three name-extraction paths in priority order:
// known-bank substring, generic bank-word patterns, then filename fallback.
func (d *Detector) extractBankName(text, lower, fileName string, ps *PatternSet) (string, nameOrigin) {
	for _, bank := range knownBanks {
		if strings.Contains(lower, bank) {
			return titleCase(bank), originKnownBank
		}
	}

	if name, ok := d.nameFromPatterns(text, ps); ok {
		return name, originPattern
	}

	if fileName != "" {
		return d.nameFromFileName(fileName)
	}

	return "", originNone
}

// nameFromPatterns scans for "<words> bank|banco|..." constructs and
// header-like capitalized lines, rejecting numeric, too-short, and
// document-structure candidates.
func (d *Detector) nameFromPatterns(text string, ps *PatternSet) (string, bool) {
	if m := ps.BankWordPattern.FindStringSubmatch(text); m != nil {
		if candidate := cleanNameCandidate(m[1]); candidate != "" {
			return titleCase(candidate) + bankSuffix(m[2], ps.Language), true
		}
	}
	if ps.BankPrefixPattern != nil {
		if m := ps.BankPrefixPattern.FindStringSubmatch(text); m != nil {
			if candidate := cleanNameCandidate(m[2]); candidate != "" {
				return titleCase(m[1] + " " + candidate), true
			}
		}
	}

	// Header-like lines: short runs of capitalized words at line starts.
	for _, line := range headLines(text, 10) {
		if name, ok := capitalizedRun(line); ok {
			return titleCase(name), true
		}
	}

	return "", false
}

// nameFromFileName checks a file name against known banks, then generic bank
// keywords, then accepts the cleaned name itself when it has plausible length.
func (d *Detector) nameFromFileName(fileName string) (string, nameOrigin) {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	cleaned := strings.ToLower(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base))
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	for _, bank := range knownBanks {
		if strings.Contains(cleaned, bank) {
			return titleCase(bank), originKnownBank
		}
	}
	for _, kw := range bankIdentifierKeywords {
		if strings.Contains(cleaned, kw) {
			return titleCase(cleaned), originFilename
		}
	}
	if len(cleaned) > 3 && len(cleaned) < 30 {
		return titleCase(cleaned), originFilename
	}
	return "", originNone
}

// bankingLikelihood is the pre-check applied only when no bank name was
// found: a quick structural score deciding whether this looks like banking
// material at all. Its 0.5 threshold is independent from the final 0.25
// confidence gate.
func (d *Detector) bankingLikelihood(lower string, ps *PatternSet, features model.DetectedFeatures) float64 {
	score := float64(features.HeaderMatches) * 0.3
	if features.AccountNumber != "" {
		score += 0.4
	}
	if features.Currency != "" {
		score += 0.2
	}
	if strings.Contains(lower, "balance") || strings.Contains(lower, "saldo") {
		score += 0.1
	}
	if strings.Contains(lower, "statement") || strings.Contains(lower, "extracto") {
		score += 0.1
	}
	return score
}

// nameFromDocumentStructure scans the first few lines for something that
// looks like a letterhead title; failing that, it names the institution
// generically in the detected language.
func (d *Detector) nameFromDocumentStructure(text string, ps *PatternSet) (string, nameOrigin) {
	for _, line := range headLines(text, 5) {
		if name, ok := capitalizedRun(line); ok {
			return titleCase(name), originGeneric
		}
	}
	return ps.GenericBankName, originGeneric
}

func (d *Detector) extractAccountNumber(text string, ps *PatternSet) string {
	for _, re := range ps.AccountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[0]
		if len(m) > 1 && m[1] != "" {
			candidate = m[1]
		}
		return strings.Join(strings.Fields(candidate), "")
	}
	return ""
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

// scoreAccountNumber validates the extracted number by regional shape.
func (d *Detector) scoreAccountNumber(account string, lang model.Language) (float64, string) {
	normalized := strings.ToUpper(strings.ReplaceAll(account, "-", ""))
	switch {
	case lang == model.LanguageSpanish && len(normalized) == 24 && strings.HasPrefix(normalized, "ES"):
		return 0.3, "account_number:iban_es"
	case lang == model.LanguageEnglish && digitsOnly.MatchString(normalized) &&
		len(normalized) >= 9 && len(normalized) <= 17:
		return 0.25, "account_number:regional"
	case digitsOnly.MatchString(normalized) && len(normalized) >= 10 && len(normalized) <= 24:
		return 0.15, "account_number:generic"
	default:
		return 0.05, "account_number:weak"
	}
}

func (d *Detector) extractCurrency(text string, ps *PatternSet) string {
	lower := strings.ToLower(text)
	for _, tok := range ps.CurrencyTokens {
		if len(tok) == 1 || !isLetters(tok) {
			if strings.Contains(text, tok) {
				return tok
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(tok)) {
			return tok
		}
	}
	return ""
}

var recognizedCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "CAD": true, "MXN": true, "ARS": true,
}

// scoreCurrency checks the extracted token against the regional default.
func (d *Detector) scoreCurrency(token string, ps *PatternSet) (float64, string) {
	code := normalizeCurrency(token)
	switch {
	case code == ps.DefaultCurrency:
		return 0.15, "currency:" + code
	case recognizedCurrencies[code]:
		return 0.1, "currency_foreign:" + code
	default:
		return 0.05, "currency_unrecognized"
	}
}

func (d *Detector) resolveCurrency(token string, ps *PatternSet) string {
	if token == "" {
		return ps.DefaultCurrency
	}
	if code := normalizeCurrency(token); code != "" {
		return code
	}
	return token
}

func (d *Detector) countHeaderMatches(lower string, ps *PatternSet) int {
	count := 0
	for _, kw := range ps.HeaderKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// classifyDocumentType matches the active language's term lists in fixed
// order; the first matching list wins.
func (d *Detector) classifyDocumentType(lower string, ps *PatternSet) model.DocumentType {
	for _, term := range ps.CreditCardTerms {
		if strings.Contains(lower, term) {
			return model.DocumentTypeCreditCard
		}
	}
	for _, term := range ps.SavingsTerms {
		if strings.Contains(lower, term) {
			return model.DocumentTypeSavings
		}
	}
	for _, term := range ps.CheckingTerms {
		if strings.Contains(lower, term) {
			return model.DocumentTypeChecking
		}
	}
	return model.DocumentTypeBankStatement
}

var esIbanPattern = regexp.MustCompile(`(?i)\bES\d{2}`)

func (d *Detector) inferCountry(lower, text string, lang model.Language) string {
	if lang == model.LanguageSpanish {
		switch {
		case strings.Contains(lower, "españa") || strings.Contains(lower, "spain") ||
			esIbanPattern.MatchString(text):
			return "ES"
		case strings.Contains(lower, "méxico") || strings.Contains(lower, "mexico"):
			return "MX"
		case strings.Contains(lower, "argentina"):
			return "AR"
		default:
			return "ES"
		}
	}
	switch {
	case strings.Contains(lower, "united states") || strings.Contains(lower, "usa") ||
		routingPattern.MatchString(text):
		return "US"
	case strings.Contains(lower, "united kingdom") || strings.Contains(lower, " uk") ||
		strings.Contains(lower, "gbp"):
		return "GB"
	case strings.Contains(lower, "canada") || strings.Contains(lower, "cad"):
		return "CA"
	default:
		return "US"
	}
}

// periodPlausible accepts positive spans of at most one year.
func periodPlausible(start, end time.Time) bool {
	days := end.Sub(start).Hours() / 24
	return days > 0 && days <= 365
}

func normalizeCurrency(token string) string {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "€", "EUR", "EURO", "EUROS":
		return "EUR"
	case "$", "USD", "DOLLARS":
		return "USD"
	case "£", "GBP":
		return "GBP"
	case "CAD":
		return "CAD"
	default:
		return strings.ToUpper(strings.TrimSpace(token))
	}
}

func containsBankKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"bank", "banco", "caja", "credit union", "financial", "entidad", "cooperativa", "mutua", "trust"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func bankSuffix(matchedKeyword string, lang model.Language) string {
	switch strings.ToLower(matchedKeyword) {
	case "bank":
		return " Bank"
	case "banco":
		return " Banco"
	default:
		return " " + titleCase(matchedKeyword)
	}
}

// cleanNameCandidate drops candidates that are numeric, too short, or made of
// document-structure words.
func cleanNameCandidate(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if len(candidate) < 3 || digitsOnly.MatchString(candidate) {
		return ""
	}
	words := strings.Fields(strings.ToLower(candidate))
	// Strip leading document-structure words, then reject if nothing is left.
	for len(words) > 0 && genericDocumentWords[words[0]] {
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	kept := strings.Join(words, " ")
	if len(kept) < 3 || digitsOnly.MatchString(kept) {
		return ""
	}
	return kept
}

// capitalizedRun extracts a short run of capitalized words from a line if the
// line looks like a header or letterhead title.
func capitalizedRun(line string) (string, bool) {
	line = strings.TrimSpace(line)
	words := strings.Fields(line)
	if len(words) < 1 || len(words) > 5 {
		return "", false
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 || !isUpper(r[0]) {
			return "", false
		}
	}
	candidate := cleanNameCandidate(line)
	if candidate == "" {
		return "", false
	}
	return candidate, true
}

func headLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func isUpper(r rune) bool {
	return (r >= 'A' && r <= 'Z') || strings.ContainsRune("ÁÉÍÓÚÑ", r)
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
