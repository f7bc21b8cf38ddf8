package domain

// Derived lead labels that do not come from a deal stage.
const (
	LabelWaiting    = "Waiting List"
	LabelIncomplete = "Incomplete"
)

// DeriveLeadLabel maps a lead's state to its pipeline label. A waiting-list
// entry overrides any deal. With multiple deals (legacy data), a non-Lost
// deal wins over a Lost one. A lead with no deal, or only a corrupted one,
// reports Incomplete so the gap is visible instead of crashing the read
// path.
func DeriveLeadLabel(dealStages []string, onWaitingList bool) string {
	if onWaitingList {
		return LabelWaiting
	}

	var fallback string
	for _, raw := range dealStages {
		stage, err := ParseStage(raw)
		if err != nil {
			continue
		}
		if stage != StageLost {
			return string(stage)
		}
		fallback = string(stage)
	}
	if fallback != "" {
		return fallback
	}
	return LabelIncomplete
}
