package domain

import "fmt"

// Stage is a deal's position in the enrollment funnel. Values outside the
// canonical set never become a Stage; ParseStage is the only boundary where
// raw storage text enters, and it rejects anything unknown.
type Stage string

const (
	StageNew       Stage = "New"
	StageContacted Stage = "Contacted"
	StageQualified Stage = "Qualified"
	StageProposal  Stage = "Proposal"
	StageDecision  Stage = "Decision"
	StageWon       Stage = "Won"
	StageLost      Stage = "Lost"
)

// stageOrder lists the non-terminal funnel in strict order.
var stageOrder = []Stage{StageNew, StageContacted, StageQualified, StageProposal, StageDecision}

var knownStages = map[Stage]struct{}{
	StageNew:       {},
	StageContacted: {},
	StageQualified: {},
	StageProposal:  {},
	StageDecision:  {},
	StageWon:       {},
	StageLost:      {},
}

// CorruptedStageError marks a stage value read from storage that is not one
// of the seven canonical values.
type CorruptedStageError struct {
	Raw string
}

func (e *CorruptedStageError) Error() string {
	return fmt.Sprintf("corrupted deal stage %q", e.Raw)
}

// ParseStage maps raw storage text to a canonical Stage. Unknown text
// returns a CorruptedStageError carrying the raw value.
func ParseStage(raw string) (Stage, error) {
	stage := Stage(raw)
	if _, ok := knownStages[stage]; !ok {
		return "", &CorruptedStageError{Raw: raw}
	}
	return stage, nil
}

// IsKnownStage reports whether raw is one of the seven canonical values.
func IsKnownStage(raw string) bool {
	_, ok := knownStages[Stage(raw)]
	return ok
}

// IsTerminal reports whether the stage ends the funnel.
func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost
}

// Next returns the following funnel stage. There is no automatic advance
// past Decision: reaching Won or Lost requires an explicit terminal move,
// so Next of Decision (and of the terminals) is undefined.
func (s Stage) Next() (Stage, bool) {
	for i, stage := range stageOrder {
		if stage == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// Previous returns the prior funnel stage. Won and Lost both step back to
// Decision so that a terminal move can be undone.
func (s Stage) Previous() (Stage, bool) {
	if s.IsTerminal() {
		return StageDecision, true
	}
	for i, stage := range stageOrder {
		if stage == s && i > 0 {
			return stageOrder[i-1], true
		}
	}
	return "", false
}

// Loss reasons agents may pick when closing a deal as Lost.
const (
	LossReasonPrice       = "Preço"
	LossReasonClassClosed = "Turma Fechada"
	LossReasonNoInterest  = "Sem Interesse"
	LossReasonCompetitor  = "Concorrência"
	LossReasonNoResponse  = "Sem Retorno"

	// LossReasonInactivity is reserved for the archival sweep. Agents
	// cannot select it; deals carrying it are flagged as system-closed.
	LossReasonInactivity = "Inatividade"
)

var agentLossReasons = map[string]struct{}{
	LossReasonPrice:       {},
	LossReasonClassClosed: {},
	LossReasonNoInterest:  {},
	LossReasonCompetitor:  {},
	LossReasonNoResponse:  {},
}

// IsAgentLossReason reports whether a reason may be supplied on a manual
// move to Lost.
func IsAgentLossReason(reason string) bool {
	_, ok := agentLossReasons[reason]
	return ok
}

// AgentLossReasons returns the selectable loss reasons in display order.
func AgentLossReasons() []string {
	return []string{
		LossReasonPrice,
		LossReasonClassClosed,
		LossReasonNoInterest,
		LossReasonCompetitor,
		LossReasonNoResponse,
	}
}

// ValidateTransition checks a manual stage move. Terminal deals accept no
// further moves; the waiting-list restore path creates a fresh deal instead.
// A move to Lost requires one of the enumerated agent loss reasons.
func ValidateTransition(from, to Stage, lossReason string) error {
	if from.IsTerminal() {
		return fmt.Errorf("deal is already %s", from)
	}
	if _, ok := knownStages[to]; !ok {
		return &CorruptedStageError{Raw: string(to)}
	}
	if to == StageLost && !IsAgentLossReason(lossReason) {
		return fmt.Errorf("moving a deal to %s requires a loss reason", StageLost)
	}
	return nil
}

// Defaults applied when the reconciliation engine inserts a deal for an
// orphaned lead.
const (
	DefaultDealProbability = 10
	DefaultDealCloseDays   = 30
)
