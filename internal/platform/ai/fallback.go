package ai

import "strings"

// Canned responses returned when the quota is exhausted or the oracle call
// ultimately fails. Selected by sniffing the request's intent from its prompt
// so the caller always receives text shaped for its use case.
const (
	// TriageFallback matches the parser format used by the triage flow.
	TriageFallback = "URGENCY:3 PRIORITY:semi-urgent WAIT:30 FLAGS:Standard assessment - AI analysis temporarily unavailable"

	InsightsFallback = "AI-generated insights are temporarily unavailable because the daily " +
		"analysis quota has been reached. Dashboard metrics remain live and accurate; " +
		"narrative interpretation will resume when the quota window resets."

	ClinicalFallback = "AI diagnostic assistance is temporarily unavailable. Please proceed " +
		"with standard clinical assessment: review the presenting symptoms against " +
		"established clinical guidelines, order indicated investigations, and consult " +
		"a senior colleague for complex presentations."

	GenericFallback = "The AI assistant is temporarily unavailable due to daily usage limits. " +
		"Please try again later."
)

// Fallback returns the deterministic canned response for a prompt.
func Fallback(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "triage") || strings.Contains(p, "urgency"):
		return TriageFallback
	case strings.Contains(p, "insight") || strings.Contains(p, "analytics"):
		return InsightsFallback
	case strings.Contains(p, "diagnos") || strings.Contains(p, "symptom"):
		return ClinicalFallback
	default:
		return GenericFallback
	}
}
