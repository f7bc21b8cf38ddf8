package domain

import "time"

// SLAStatus classifies how urgently a lead needs agent attention.
type SLAStatus string

const (
	SLAHandled SLAStatus = "handled"
	SLAWaiting SLAStatus = "waiting"
	SLAOverdue SLAStatus = "overdue"
	SLAWarning SLAStatus = "warning"
	SLANormal  SLAStatus = "normal"
)

// DefaultSLAWarningHours is the contact-age boundary. Exactly this many
// whole hours is a warning; anything beyond is overdue.
const DefaultSLAWarningHours = 12

// SLAResult is the computed response-time classification for a lead.
type SLAResult struct {
	Status            SLAStatus `json:"status"`
	Label             string    `json:"label"`
	HoursSinceContact int       `json:"hoursSinceContact"`
}

// SLASnapshot is the read-only view ClassifySLA derives from. LastContactAt
// must be the newest human-contact activity (call, email, meeting, note)
// for the lead; status changes never count.
type SLASnapshot struct {
	LeadCreatedAt time.Time
	DealStage     string
	HasDeal       bool
	OnWaitingList bool
	LastContactAt *time.Time
}

// ClassifySLA computes the SLA status of a lead from a storage snapshot.
// It is pure and never fails; corrupted deal stages simply do not count as
// terminal, so such leads keep aging until repaired.
func ClassifySLA(snapshot SLASnapshot, now time.Time, warningHours int) SLAResult {
	if warningHours <= 0 {
		warningHours = DefaultSLAWarningHours
	}

	if snapshot.HasDeal {
		if stage, err := ParseStage(snapshot.DealStage); err == nil && stage.IsTerminal() {
			return SLAResult{Status: SLAHandled, Label: "Finished"}
		}
	}

	if snapshot.OnWaitingList {
		return SLAResult{Status: SLAWaiting, Label: "Waiting List"}
	}

	lastContact := snapshot.LeadCreatedAt
	if snapshot.LastContactAt != nil {
		lastContact = *snapshot.LastContactAt
	}

	hoursDiff := int(now.Sub(lastContact).Hours())

	switch {
	case hoursDiff > warningHours:
		return SLAResult{Status: SLAOverdue, Label: "Overdue", HoursSinceContact: hoursDiff}
	case hoursDiff == warningHours:
		return SLAResult{Status: SLAWarning, Label: "Warning", HoursSinceContact: hoursDiff}
	default:
		return SLAResult{Status: SLANormal, Label: "On Track", HoursSinceContact: hoursDiff}
	}
}
