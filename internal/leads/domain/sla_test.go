package domain

import (
	"testing"
	"time"
)

func TestClassifySLATerminalAlwaysHandled(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ancient := now.Add(-90 * 24 * time.Hour)

	for _, stage := range []Stage{StageWon, StageLost} {
		snapshot := SLASnapshot{
			LeadCreatedAt: ancient,
			DealStage:     string(stage),
			HasDeal:       true,
		}
		got := ClassifySLA(snapshot, now, DefaultSLAWarningHours)
		if got.Status != SLAHandled || got.Label != "Finished" {
			t.Errorf("stage %s: got (%s, %q), want (handled, Finished)", stage, got.Status, got.Label)
		}
	}
}

func TestClassifySLAWaitingOverridesAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := SLASnapshot{
		LeadCreatedAt: now.Add(-30 * 24 * time.Hour),
		OnWaitingList: true,
	}

	got := ClassifySLA(snapshot, now, DefaultSLAWarningHours)
	if got.Status != SLAWaiting || got.Label != "Waiting List" {
		t.Errorf("got (%s, %q), want (waiting, Waiting List)", got.Status, got.Label)
	}

	// A stale non-terminal deal reference does not change the outcome.
	snapshot.HasDeal = true
	snapshot.DealStage = string(StageProposal)
	got = ClassifySLA(snapshot, now, DefaultSLAWarningHours)
	if got.Status != SLAWaiting {
		t.Errorf("with stale deal: got %s, want waiting", got.Status)
	}
}

func TestClassifySLAHourBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		hoursAgo   time.Duration
		wantStatus SLAStatus
		wantHours  int
	}{
		{11 * time.Hour, SLANormal, 11},
		{11*time.Hour + 59*time.Minute, SLANormal, 11},
		{12 * time.Hour, SLAWarning, 12},
		{12*time.Hour + 30*time.Minute, SLAWarning, 12},
		{13 * time.Hour, SLAOverdue, 13},
		{72 * time.Hour, SLAOverdue, 72},
		{0, SLANormal, 0},
	}

	for _, tc := range tests {
		contact := now.Add(-tc.hoursAgo)
		snapshot := SLASnapshot{
			LeadCreatedAt: now.Add(-200 * time.Hour),
			HasDeal:       true,
			DealStage:     string(StageContacted),
			LastContactAt: &contact,
		}
		got := ClassifySLA(snapshot, now, DefaultSLAWarningHours)
		if got.Status != tc.wantStatus || got.HoursSinceContact != tc.wantHours {
			t.Errorf("contact %v ago: got (%s, %d), want (%s, %d)",
				tc.hoursAgo, got.Status, got.HoursSinceContact, tc.wantStatus, tc.wantHours)
		}
	}
}

func TestClassifySLAFallsBackToCreation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := SLASnapshot{
		LeadCreatedAt: now.Add(-20 * time.Hour),
		HasDeal:       true,
		DealStage:     string(StageNew),
	}

	got := ClassifySLA(snapshot, now, DefaultSLAWarningHours)
	if got.Status != SLAOverdue || got.HoursSinceContact != 20 {
		t.Errorf("got (%s, %d), want (overdue, 20)", got.Status, got.HoursSinceContact)
	}
}

func TestClassifySLACorruptedStageKeepsAging(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshot := SLASnapshot{
		LeadCreatedAt: now.Add(-40 * time.Hour),
		HasDeal:       true,
		DealStage:     "Foobar",
	}

	got := ClassifySLA(snapshot, now, DefaultSLAWarningHours)
	if got.Status != SLAOverdue {
		t.Errorf("corrupted stage: got %s, want overdue", got.Status)
	}
}

func TestHumanContactActivityTypes(t *testing.T) {
	for _, activityType := range []string{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote} {
		if !IsHumanContactActivity(activityType) {
			t.Errorf("%s should count as human contact", activityType)
		}
	}
	if IsHumanContactActivity(ActivityStatusChange) {
		t.Error("status_change must not count as human contact")
	}
	if IsHumanContactActivity("unknown") {
		t.Error("unknown types must not count as human contact")
	}
}
