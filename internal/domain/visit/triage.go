package visit

import "strings"

// TriageAssessment is derived from a visit's symptoms on demand and never
// stored. Urgency runs 1 (emergency) to 5 (non-urgent).
type TriageAssessment struct {
	UrgencyLevel     int      `json:"urgency_level"`
	Priority         Priority `json:"priority"`
	EstimatedWaitMin int      `json:"estimated_wait_minutes"`
	Flags            []string `json:"flags"`
}

// Keyword lists are ordered most to least urgent; the first bucket with a
// match wins. Editable configuration, not behavior.
var (
	emergencyKeywords = []string{
		"chest pain", "unconscious", "not breathing", "difficulty breathing",
		"severe bleeding", "stroke", "seizure", "heart attack", "anaphylaxis",
		"overdose", "choking",
	}
	urgentKeywords = []string{
		"high fever", "fracture", "broken", "severe pain", "head injury",
		"deep cut", "dehydration", "persistent vomiting", "burn",
	}
	semiUrgentKeywords = []string{
		"fever", "vomiting", "diarrhea", "migraine", "infection",
		"abdominal pain", "dizziness", "shortness of breath",
	}
	standardKeywords = []string{
		"cough", "cold", "sore throat", "headache", "rash", "fatigue",
		"back pain", "joint pain",
	}
)

// Assess scores free-text symptoms into an urgency bucket. The result feeds
// the default visit priority at check-in and the triage endpoint.
func Assess(symptoms string) TriageAssessment {
	text := strings.ToLower(symptoms)

	match := func(keywords []string) []string {
		var hits []string
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
		return hits
	}

	if hits := match(emergencyKeywords); len(hits) > 0 {
		return TriageAssessment{
			UrgencyLevel:     1,
			Priority:         PriorityEmergency,
			EstimatedWaitMin: 0,
			Flags:            append([]string{"Immediate attention required"}, hits...),
		}
	}
	if hits := match(urgentKeywords); len(hits) > 0 {
		return TriageAssessment{
			UrgencyLevel:     2,
			Priority:         PriorityUrgent,
			EstimatedWaitMin: 15,
			Flags:            hits,
		}
	}
	if hits := match(semiUrgentKeywords); len(hits) > 0 {
		return TriageAssessment{
			UrgencyLevel:     3,
			Priority:         PriorityNormal,
			EstimatedWaitMin: 30,
			Flags:            hits,
		}
	}
	if hits := match(standardKeywords); len(hits) > 0 {
		return TriageAssessment{
			UrgencyLevel:     4,
			Priority:         PriorityNormal,
			EstimatedWaitMin: 60,
			Flags:            hits,
		}
	}
	return TriageAssessment{
		UrgencyLevel:     5,
		Priority:         PriorityNormal,
		EstimatedWaitMin: 90,
		Flags:            []string{"No urgency signals detected"},
	}
}
