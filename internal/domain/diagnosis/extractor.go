package diagnosis

import (
	"fmt"
	"regexp"
	"strings"
)

// Fixed strings returned when the pipeline cannot produce a label list.
const (
	NoSectionFallback = "Multiple possible diagnoses identified - see full assessment"
	FailureFallback   = "Diagnosis extraction failed"
)

// Keyword lists are configuration, not behavior. Matching is done on the
// upper-cased line.
var (
	sectionKeywords = []string{
		"POSSIBLE DIAGNOSES",
		"DIAGNOSIS",
		"LIKELY CONDITION",
		"MOST PROBABLE",
		"PRIMARY DIAGNOSIS",
		"DIFFERENTIAL DIAGNOSIS",
		"POTENTIAL CONDITIONS",
	}
	terminatorKeywords = []string{
		"---",
		"RECOMMENDED",
		"MANAGEMENT",
		"TREATMENT",
		"TESTS",
	}
	stopWords = []string{
		"section",
		"assessment",
		"analysis",
		"based on",
		"symptoms",
		"patient",
	}
	medicalSignals = []string{
		"syndrome",
		"disease",
		"infection",
		"disorder",
		"condition",
		"itis",
		"osis",
		"pathy",
	}
)

var (
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	numberedRe    = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+)$`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-*•]\s*(.+)$`)
	parenRe       = regexp.MustCompile(`\(([^)]+)\)`)
	colonLabelRe  = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z \-']{2,}):\s*$`)
	twoCapWordsRe = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+`)
	sentenceRe    = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

// Extract reduces a free-text AI assessment to a pipe-delimited, numbered
// list of up to 10 diagnosis labels. It never panics and never returns an
// empty string; inputs with no usable signal get one of the fixed fallback
// strings.
func Extract(text string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = FailureFallback
		}
	}()

	section, found := locateSection(text)

	var candidates []string
	if found {
		candidates = append(candidates, sectionCandidates(section)...)
	}
	candidates = append(candidates, wholeDocumentBold(text)...)

	labels := dedupe(candidates)
	if len(labels) > 0 {
		if len(labels) > 10 {
			labels = labels[:10]
		}
		parts := make([]string, len(labels))
		for i, label := range labels {
			parts[i] = fmt.Sprintf("%d. %s", i+1, label)
		}
		return strings.Join(parts, " | ")
	}

	if found {
		if sentence := firstSentence(section); sentence != "" {
			return sentence
		}
	}
	return NoSectionFallback
}

// locateSection returns the lines between the first section-keyword line and
// the first terminator line after it.
func locateSection(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		upper := strings.ToUpper(line)
		for _, kw := range sectionKeywords {
			if strings.Contains(upper, kw) {
				start = i
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		upper := strings.ToUpper(lines[i])
		for _, kw := range terminatorKeywords {
			if strings.Contains(upper, kw) {
				end = i
				break
			}
		}
		if end != len(lines) {
			break
		}
	}
	return strings.Join(lines[start:end], "\n"), true
}

// sectionCandidates runs the five extractors over the located section.
// Section headers themselves ("POSSIBLE DIAGNOSES:") are not labels.
func sectionCandidates(section string) []string {
	var out []string
	for _, re := range []*regexp.Regexp{boldRe, numberedRe, bulletRe, parenRe, colonLabelRe} {
		for _, m := range re.FindAllStringSubmatch(section, -1) {
			if containsSectionKeyword(m[1]) {
				continue
			}
			if label, ok := cleanCandidate(m[1]); ok {
				out = append(out, label)
			}
		}
	}
	return out
}

func containsSectionKeyword(s string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range sectionKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// cleanCandidate strips residual markup and applies the length and
// stop-word filters.
func cleanCandidate(raw string) (string, bool) {
	label := raw
	label = boldRe.ReplaceAllString(label, "$1")
	label = strings.ReplaceAll(label, "**", "")
	label = strings.TrimLeft(label, "-*• \t")
	if m := regexp.MustCompile(`^\d+[.)]\s*`).FindString(label); m != "" {
		label = label[len(m):]
	}
	// Keep only the label part of "Name - detail" list items.
	if idx := strings.Index(label, " - "); idx > 0 {
		label = label[:idx]
	}
	label = strings.TrimSuffix(strings.TrimSpace(label), ":")
	label = strings.TrimSpace(label)

	if len(label) <= 3 || len(label) >= 100 {
		return "", false
	}
	lower := strings.ToLower(label)
	for _, sw := range stopWords {
		if strings.Contains(lower, sw) {
			return "", false
		}
	}
	return label, true
}

// wholeDocumentBold rescues bold-marked names the section scan missed, but
// only ones carrying a medical signal.
func wholeDocumentBold(text string) []string {
	var out []string
	for _, m := range boldRe.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[1])
		if len(label) <= 5 || len(label) >= 80 {
			continue
		}
		lower := strings.ToLower(label)
		signal := false
		for _, s := range medicalSignals {
			if strings.Contains(lower, s) {
				signal = true
				break
			}
		}
		if !signal && !twoCapWordsRe.MatchString(label) {
			continue
		}
		if cleaned, ok := cleanCandidate(label); ok {
			out = append(out, cleaned)
		}
	}
	return out
}

// dedupe keeps first-seen order, comparing case-insensitively, and drops
// leftovers at or under 3 characters.
func dedupe(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		key := strings.ToLower(c)
		if len(c) <= 3 || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// firstSentence returns the first sentence of the section with a plausible
// length, or empty when none qualifies.
func firstSentence(section string) string {
	for _, m := range sentenceRe.FindAllString(section, -1) {
		s := strings.TrimSpace(m)
		if containsSectionKeyword(s) {
			continue
		}
		if len(s) > 10 && len(s) < 200 {
			return s
		}
	}
	return ""
}
