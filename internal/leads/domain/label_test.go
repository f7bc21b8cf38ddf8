package domain

import "testing"

func TestDeriveLeadLabel(t *testing.T) {
	tests := []struct {
		name          string
		stages        []string
		onWaitingList bool
		want          string
	}{
		{"no deal", nil, false, LabelIncomplete},
		{"single active deal", []string{"Proposal"}, false, "Proposal"},
		{"waiting overrides deal", []string{"Proposal"}, true, LabelWaiting},
		{"waiting with no deal", nil, true, LabelWaiting},
		{"prefers non-lost deal", []string{"Lost", "Qualified"}, false, "Qualified"},
		{"only lost deal", []string{"Lost"}, false, "Lost"},
		{"corrupted stage only", []string{"Foobar"}, false, LabelIncomplete},
		{"corrupted plus valid", []string{"Foobar", "Contacted"}, false, "Contacted"},
		{"won deal", []string{"Won"}, false, "Won"},
	}

	for _, tc := range tests {
		got := DeriveLeadLabel(tc.stages, tc.onWaitingList)
		if got != tc.want {
			t.Errorf("%s: DeriveLeadLabel(%v, %v) = %q, want %q", tc.name, tc.stages, tc.onWaitingList, got, tc.want)
		}
	}
}
