package detect

// knownBanks is the curated list of institutions matched by case-insensitive
// substring before any generic pattern heuristics run. A hit here
// short-circuits the rest of bank-name extraction.
var knownBanks = []string{
	// Spanish institutions
	"bbva",
	"santander",
	"caixabank",
	"la caixa",
	"bankia",
	"sabadell",
	"bankinter",
	"unicaja",
	"ibercaja",
	"kutxabank",
	"abanca",
	"cajamar",
	"openbank",
	"evo banco",
	"banco popular",
	"banco pastor",
	"caja rural",
	"banco march",
	"targobank",
	"bbk",
	"liberbank",

	// English-language institutions
	"chase",
	"bank of america",
	"wells fargo",
	"citibank",
	"capital one",
	"us bank",
	"pnc bank",
	"td bank",
	"truist",
	"fifth third",
	"ally bank",
	"american express",
	"discover",
	"charles schwab",
	"navy federal",
	"hsbc",
	"barclays",
	"lloyds",
	"natwest",
	"halifax",
	"nationwide",
	"royal bank of canada",
	"scotiabank",
}

// bankIdentifierKeywords is matched against file names as a fallback when
// the document text itself names no institution.
var bankIdentifierKeywords = []string{
	"bank", "banco", "caja", "credit union", "cu", "financial", "fcu",
}

// genericDocumentWords are candidate names rejected by the pattern scan
// because they describe the document rather than the institution.
var genericDocumentWords = map[string]bool{
	"statement":    true,
	"account":      true,
	"monthly":      true,
	"annual":       true,
	"summary":      true,
	"transaction":  true,
	"transactions": true,
	"extracto":     true,
	"cuenta":       true,
	"resumen":      true,
	"movimientos":  true,
	"mensual":      true,
	"periodo":      true,
	"period":       true,
	"the":          true,
	"your":         true,
	"this":         true,
	"de":           true,
	"del":          true,
	"la":           true,
	"el":           true,
}
