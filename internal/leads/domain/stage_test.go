package domain

import (
	"errors"
	"testing"
)

func TestParseStage(t *testing.T) {
	for raw := range knownStages {
		stage, err := ParseStage(string(raw))
		if err != nil {
			t.Errorf("ParseStage(%q) unexpected error: %v", raw, err)
		}
		if stage != raw {
			t.Errorf("ParseStage(%q) = %q", raw, stage)
		}
	}

	for _, raw := range []string{"", "Foobar", "new", "WON", "Decision "} {
		_, err := ParseStage(raw)
		var corrupted *CorruptedStageError
		if !errors.As(err, &corrupted) {
			t.Errorf("ParseStage(%q) should return CorruptedStageError, got %v", raw, err)
			continue
		}
		if corrupted.Raw != raw {
			t.Errorf("CorruptedStageError.Raw = %q, want %q", corrupted.Raw, raw)
		}
	}
}

func TestStageNext(t *testing.T) {
	tests := []struct {
		stage  Stage
		want   Stage
		wantOK bool
	}{
		{StageNew, StageContacted, true},
		{StageContacted, StageQualified, true},
		{StageQualified, StageProposal, true},
		{StageProposal, StageDecision, true},
		{StageDecision, "", false},
		{StageWon, "", false},
		{StageLost, "", false},
	}

	for _, tc := range tests {
		got, ok := tc.stage.Next()
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("%s.Next() = (%q, %v), want (%q, %v)", tc.stage, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestStagePrevious(t *testing.T) {
	tests := []struct {
		stage  Stage
		want   Stage
		wantOK bool
	}{
		{StageNew, "", false},
		{StageContacted, StageNew, true},
		{StageDecision, StageProposal, true},
		{StageWon, StageDecision, true},
		{StageLost, StageDecision, true},
	}

	for _, tc := range tests {
		got, ok := tc.stage.Previous()
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("%s.Previous() = (%q, %v), want (%q, %v)", tc.stage, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name       string
		from, to   Stage
		lossReason string
		wantErr    bool
	}{
		{"forward move", StageNew, StageContacted, "", false},
		{"skip ahead", StageNew, StageDecision, "", false},
		{"step back", StageProposal, StageQualified, "", false},
		{"win", StageDecision, StageWon, "", false},
		{"lost with reason", StageDecision, StageLost, LossReasonPrice, false},
		{"lost without reason", StageDecision, StageLost, "", true},
		{"lost with unknown reason", StageDecision, StageLost, "Other", true},
		{"lost with system reason", StageDecision, StageLost, LossReasonInactivity, true},
		{"from won", StageWon, StageDecision, "", true},
		{"from lost", StageLost, StageNew, "", true},
		{"to corrupted", StageNew, Stage("Foobar"), "", true},
	}

	for _, tc := range tests {
		err := ValidateTransition(tc.from, tc.to, tc.lossReason)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: ValidateTransition(%q, %q, %q) error = %v, wantErr %v",
				tc.name, tc.from, tc.to, tc.lossReason, err, tc.wantErr)
		}
	}
}

func TestAgentLossReasons(t *testing.T) {
	for _, reason := range AgentLossReasons() {
		if !IsAgentLossReason(reason) {
			t.Errorf("listed reason %q not accepted", reason)
		}
	}
	if IsAgentLossReason(LossReasonInactivity) {
		t.Error("system reason must not be selectable by agents")
	}
}
