package extraction

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule matches one textual pattern for a field and shapes the value it
// extracts. Rules are pure functions over snippet text; the table is built
// once at startup and never mutated.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp

	// Extract produces the field-shaped value from a pattern match. A false
	// return discards the candidate, for matches that fail semantic parsing.
	Extract func(match []string) (json.RawMessage, bool)

	// Confidence scores the match in [0, 1] given the full snippet.
	Confidence func(match []string, snippet string) float64
}

// RuleTable holds the rules for every extractable field.
type RuleTable map[FieldKey][]Rule

var fieldKeywords = map[FieldKey][]string{
	FieldScope:      {"scope", "services", "works", "supply", "deliverables", "contract"},
	FieldDeadline:   {"deadline", "closing", "submission", "no later than", "by"},
	FieldBudget:     {"budget", "value", "estimated", "price", "amount", "contract"},
	FieldAuthority:  {"authority", "contracting", "issued", "behalf", "agency", "ministry"},
	FieldSubmission: {"submit", "submission", "portal", "electronically", "tender", "offer"},
}

var mandatoryMarkers = []string{"shall", "must", "required", "mandatory"}

// NewRuleTable builds the fixed rule set used by the engine.
func NewRuleTable() RuleTable {
	return RuleTable{
		FieldScope: {
			{
				Name:       "scope-labeled",
				Pattern:    regexp.MustCompile(`(?i)\bscope\s*[:\-]\s*(\S[^\n]{4,299})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.6, "scope", "work"),
			},
			{
				Name:       "scope-heading",
				Pattern:    regexp.MustCompile(`(?i)scope of (?:work|works|services|supply)\s*[:\-]?\s*(\S[^\n]{9,299})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.75, "scope"),
			},
			{
				Name:       "contract-subject",
				Pattern:    regexp.MustCompile(`(?i)subject of (?:the )?(?:contract|procurement|tender)\s*[:\-]?\s*(\S[^\n]{9,299})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.7, "contract"),
			},
			{
				Name:       "contractor-obligation",
				Pattern:    regexp.MustCompile(`(?i)the contractor (?:shall|will|must) (?:provide|deliver|perform|supply)\s+(\S[^.\n]{9,299})`),
				Confidence: markerConfidence(0.55, "contractor"),
				Extract:    stringValue(1),
			},
		},
		FieldDeadline: {
			{
				Name:       "deadline-labeled",
				Pattern:    regexp.MustCompile(`(?i)(?:deadline|closing date|submission date|no later than|submitted by|received by)\s*[:\-]?\s*(?:is\s+)?(\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]+\s+\d{4}|[A-Za-z]+\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}[./]\d{1,2}[./]\d{4})`),
				Extract:    dateValue(1),
				Confidence: markerConfidence(0.8, "deadline", "closing", "no later than"),
			},
			{
				Name:       "bare-date",
				Pattern:    regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}\s+[A-Za-z]+\s+\d{4})`),
				Extract:    dateValue(1),
				Confidence: markerConfidence(0.35, "deadline", "submission", "closing"),
			},
		},
		FieldBudget: {
			{
				Name:       "currency-code-amount",
				Pattern:    regexp.MustCompile(`(?i)\b(EUR|USD|GBP|CHF)\s*([0-9][0-9., ]*[0-9]|[0-9])(\s*million)?`),
				Extract:    budgetValue(1, 2, 3),
				Confidence: markerConfidence(0.75, "budget", "value", "estimated"),
			},
			{
				Name:       "amount-currency-code",
				Pattern:    regexp.MustCompile(`(?i)([0-9][0-9., ]*[0-9]|[0-9])(\s*million)?\s*(EUR|USD|GBP|CHF)\b`),
				Extract:    budgetValue(3, 1, 2),
				Confidence: markerConfidence(0.7, "budget", "value", "estimated"),
			},
			{
				Name:       "currency-symbol-amount",
				Pattern:    regexp.MustCompile(`([€$£])\s*([0-9][0-9., ]*[0-9]|[0-9])(\s*million)?`),
				Extract:    budgetValue(1, 2, 3),
				Confidence: markerConfidence(0.65, "budget", "value", "estimated"),
			},
		},
		FieldAuthority: {
			{
				Name:       "authority-labeled",
				Pattern:    regexp.MustCompile(`(?i)contracting (?:authority|entity)\s*[:\-]?\s*(?:is\s+)?([A-Z][^.;\n]{2,79})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.8, "contracting"),
			},
			{
				Name:       "issued-by",
				Pattern:    regexp.MustCompile(`(?i)(?:issued|published|procured) by\s+([A-Z][^.;\n]{2,79})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.6, "issued", "published"),
			},
			{
				Name:       "on-behalf-of",
				Pattern:    regexp.MustCompile(`(?i)on behalf of\s+(?:the\s+)?([A-Z][^.;\n]{2,79})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.55, "behalf"),
			},
		},
		FieldSubmission: {
			{
				Name:       "submission-instruction",
				Pattern:    regexp.MustCompile(`(?i)(?:tenders?|bids?|offers?|submissions?|proposals?)\s+(?:must|shall|should|are to)\s+be\s+(?:submitted|lodged|delivered)\s+(?:via|through|to|by|at)\s+(\S[^.\n]{2,199})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.8, "submit"),
			},
			{
				Name:       "submit-via",
				Pattern:    regexp.MustCompile(`(?i)submit(?:ted)?\s+(?:electronically\s+)?(?:via|through|to)\s+(\S[^.\n]{2,199})`),
				Extract:    stringValue(1),
				Confidence: markerConfidence(0.6, "electronically", "portal"),
			},
		},
	}
}

// stringValue extracts the given capture group as a trimmed JSON string.
func stringValue(group int) func([]string) (json.RawMessage, bool) {
	return func(match []string) (json.RawMessage, bool) {
		if group >= len(match) {
			return nil, false
		}
		s := strings.TrimSpace(match[group])
		if s == "" {
			return nil, false
		}
		v, err := json.Marshal(s)
		return v, err == nil
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"January 2 2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
}

var ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)`)

// dateValue parses the capture group with the known layouts and shapes it as
// an RFC 3339 full-date string.
func dateValue(group int) func([]string) (json.RawMessage, bool) {
	return func(match []string) (json.RawMessage, bool) {
		if group >= len(match) {
			return nil, false
		}
		raw := ordinalSuffix.ReplaceAllString(strings.TrimSpace(match[group]), "$1")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				v, err := json.Marshal(t.Format("2006-01-02"))
				return v, err == nil
			}
		}
		return nil, false
	}
}

var currencyNames = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
}

// budgetValue shapes a currency match as {"amount": n, "currency": code}.
// millionGroup, when matched, scales the amount.
func budgetValue(currencyGroup, amountGroup, millionGroup int) func([]string) (json.RawMessage, bool) {
	return func(match []string) (json.RawMessage, bool) {
		if currencyGroup >= len(match) || amountGroup >= len(match) {
			return nil, false
		}

		currency := strings.ToUpper(strings.TrimSpace(match[currencyGroup]))
		if name, ok := currencyNames[currency]; ok {
			currency = name
		}

		amount, ok := parseAmount(match[amountGroup])
		if !ok {
			return nil, false
		}
		if millionGroup < len(match) && strings.TrimSpace(match[millionGroup]) != "" {
			amount *= 1_000_000
		}

		v, err := json.Marshal(map[string]any{
			"amount":   amount,
			"currency": currency,
		})
		return v, err == nil
	}
}

// parseAmount normalizes European and Anglo digit grouping. When both
// separators appear, the last one is the decimal mark. A lone separator is
// grouping when it repeats or is followed by exactly three digits, and a
// decimal mark otherwise.
func parseAmount(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

// markerConfidence returns a confidence function that starts from base and
// adds a small boost per context marker found in the snippet, capped at 0.95.
func markerConfidence(base float64, markers ...string) func([]string, string) float64 {
	return func(_ []string, snippet string) float64 {
		lower := strings.ToLower(snippet)
		confidence := base
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				confidence += 0.05
			}
		}
		if confidence > 0.95 {
			confidence = 0.95
		}
		return confidence
	}
}

// relevance scores how on-topic a snippet is for a field: keyword overlap,
// a length band, and mandatory-language markers, normalized to [0, 1].
func relevance(key FieldKey, snippet string) float64 {
	lower := strings.ToLower(snippet)

	keywords := fieldKeywords[key]
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	overlap := float64(hits) / float64(len(keywords))

	length := 0.0
	switch n := len(snippet); {
	case n >= 40 && n <= 400:
		length = 1.0
	case n < 40:
		length = float64(n) / 40
	default:
		length = 400 / float64(n)
	}

	mandatory := 0.0
	for _, marker := range mandatoryMarkers {
		if strings.Contains(lower, marker) {
			mandatory = 1.0
			break
		}
	}

	return 0.5*overlap + 0.25*length + 0.25*mandatory
}
