package domain

import "testing"

func TestNormalizeClassification(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantOK  bool
		comment string
	}{
		{"dependent of a worker at a transport company", ClassificationDependent, true, "dependent precedence"},
		{"Dependente of worker, transport sector", ClassificationDependent, true, "mixed language input"},
		{"worker at a transport company", ClassificationWorker, true, "worker without dependent"},
		{"transport sector worker", ClassificationWorker, true, "sector phrasing"},
		{"community", ClassificationCommunity, true, "community"},
		{"Comunity member", "", false, "misspelling does not match"},
		{"COMMUNITY OUTREACH", ClassificationCommunity, true, "case insensitive"},
		{"cömmunity", ClassificationCommunity, true, "diacritics stripped"},
		{"", "", false, "empty input"},
		{"   ", "", false, "whitespace only"},
		{"student", "", false, "no category mentioned"},
		{"worker", "", false, "worker without transport phrase"},
		{"dependent worker", "", false, "dependent without transport phrase"},
	}

	for _, tc := range tests {
		got, ok := NormalizeClassification(tc.input)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("NormalizeClassification(%q) = (%q, %v), want (%q, %v) [%s]",
				tc.input, got, ok, tc.want, tc.wantOK, tc.comment)
		}
	}
}

func TestNormalizeClassificationIdempotent(t *testing.T) {
	for _, canonical := range Classifications() {
		got, ok := NormalizeClassification(canonical)
		if !ok {
			t.Fatalf("canonical value %q did not normalize", canonical)
		}
		if got != canonical {
			t.Errorf("NormalizeClassification(%q) = %q, want the input unchanged", canonical, got)
		}

		// Second pass must be a fixed point too.
		again, ok := NormalizeClassification(got)
		if !ok || again != got {
			t.Errorf("NormalizeClassification(NormalizeClassification(%q)) = (%q, %v), not idempotent", canonical, again, ok)
		}
	}
}

func TestNormalizeClassificationPrecedence(t *testing.T) {
	// An input mentioning dependent, worker and community resolves to the
	// dependent category, never community.
	input := "dependent of a transport company worker living in the community"
	got, ok := NormalizeClassification(input)
	if !ok || got != ClassificationDependent {
		t.Errorf("NormalizeClassification(%q) = (%q, %v), want (%q, true)", input, got, ok, ClassificationDependent)
	}
}
