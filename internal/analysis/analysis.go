// Package analysis classifies call transcripts with fixed keyword tables.
// Results are deterministic so a classification can always be traced back to
// the words that produced it.
package analysis

import "strings"

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentNegative Sentiment = "Negative"
)

type Outcome string

const (
	OutcomeInterested        Outcome = "Interested"
	OutcomeNotInterested     Outcome = "Not Interested"
	OutcomeCallback          Outcome = "Callback"
	OutcomeAppointmentBooked Outcome = "Appointment Booked"
	OutcomeNoAnswer          Outcome = "No Answer"
	OutcomeWrongNumber       Outcome = "Wrong Number"
	OutcomeOther             Outcome = "Other"
)

// PositiveWords and NegativeWords are matched as lowercase substrings.
// Each entry counts at most once per transcript; "busy" is listed twice in
// NegativeWords and therefore counts twice.
var (
	PositiveWords = []string{
		"yes", "interested", "great", "good", "perfect", "sure", "definitely", "absolutely",
		"हां", "रुचि", "अच्छा", "बढ़िया", "ज़रूर", "bilkul", "theek hai",
	}
	NegativeWords = []string{
		"no", "not interested", "busy", "later", "dont", "don't", "never",
		"नहीं", "रुचि नहीं", "busy", "baad mein", "नहीं चाहिए",
	}
)

// OutcomeRule maps a set of phrases to an outcome. Rules are evaluated in order.
type OutcomeRule struct {
	Outcome Outcome
	Phrases []string
}

// OutcomeRules is ordered: booking language wins over generic interest.
var OutcomeRules = []OutcomeRule{
	{OutcomeAppointmentBooked, []string{"appointment", "site visit", "when can", "अपॉइंटमेंट", "साइट विजिट", "कब आ"}},
	{OutcomeInterested, []string{"interested", "tell me more", "रुचि", "बताइए"}},
	{OutcomeNotInterested, []string{"not interested", "no thank", "रुचि नहीं", "नहीं चाहिए"}},
	{OutcomeCallback, []string{"call back", "later", "बाद में", "callback"}},
}

// AnalyzeSentiment compares positive and negative keyword hits; ties are Neutral.
func AnalyzeSentiment(transcript string) Sentiment {
	if transcript == "" {
		return SentimentNeutral
	}
	lower := strings.ToLower(transcript)

	pos := countHits(lower, PositiveWords)
	neg := countHits(lower, NegativeWords)

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// DetermineOutcome returns the outcome of the first matching rule, or Other.
func DetermineOutcome(transcript string) Outcome {
	if transcript == "" {
		return OutcomeOther
	}
	lower := strings.ToLower(transcript)

	for _, rule := range OutcomeRules {
		if countHits(lower, rule.Phrases) > 0 {
			return rule.Outcome
		}
	}
	return OutcomeOther
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}
