package analysis

import "testing"

func TestAnalyzeSentiment(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       Sentiment
	}{
		{"empty", "", SentimentNeutral},
		{"positive", "Yes, definitely interested, sounds great", SentimentPositive},
		// negatives: no, not interested, later; positives: interested
		{"mixed resolves by majority", "No, not interested, maybe later", SentimentNegative},
		{"no keywords", "hello there", SentimentNeutral},
		{"busy counts twice", "sure, but I am busy", SentimentNegative},
		{"tie", "yes, but no", SentimentNeutral},
		{"hinglish positive", "Haan bilkul, theek hai", SentimentPositive},
		{"hindi negative", "नहीं चाहिए", SentimentNegative},
		{"case insensitive", "PERFECT", SentimentPositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnalyzeSentiment(tc.transcript); got != tc.want {
				t.Fatalf("AnalyzeSentiment(%q) = %s, want %s", tc.transcript, got, tc.want)
			}
		})
	}
}

func TestDetermineOutcome(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       Outcome
	}{
		{"empty", "", OutcomeOther},
		{"site visit beats interest", "Can we schedule a site visit this weekend?", OutcomeAppointmentBooked},
		{"booking with interest", "I am interested, book an appointment", OutcomeAppointmentBooked},
		{"interest", "Please tell me more about the 3BHK", OutcomeInterested},
		// "not interested" contains "interested", so the interest rule fires first.
		{"not interested shadowed", "I am not interested", OutcomeInterested},
		{"no thanks", "No thank you", OutcomeNotInterested},
		{"callback", "Please call back tomorrow", OutcomeCallback},
		{"hindi callback", "बाद में बात करते हैं", OutcomeCallback},
		{"hindi booking", "आप कब आ सकते हैं", OutcomeAppointmentBooked},
		{"nothing", "wrong person", OutcomeOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineOutcome(tc.transcript); got != tc.want {
				t.Fatalf("DetermineOutcome(%q) = %s, want %s", tc.transcript, got, tc.want)
			}
		})
	}
}

func TestKeywordTablesAreLowercase(t *testing.T) {
	check := func(words []string) {
		for _, w := range words {
			for _, r := range w {
				if r >= 'A' && r <= 'Z' {
					t.Fatalf("keyword %q must be lowercase", w)
				}
			}
		}
	}
	check(PositiveWords)
	check(NegativeWords)
	for _, r := range OutcomeRules {
		check(r.Phrases)
	}
}
