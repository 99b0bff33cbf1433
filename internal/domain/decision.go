package domain

// DecisionOutcome is the terminal state of one snapshot's trip through the
// detect -> plan -> apply pipeline.
type DecisionOutcome int

const (
	// OutcomeNoSignal: detection found no exploitable edge.
	OutcomeNoSignal DecisionOutcome = iota
	// OutcomeRejectedByPlanner: an opportunity existed but did not clear
	// confidence, sizing or profit gates.
	OutcomeRejectedByPlanner
	// OutcomeRejectedByLedger: the plan could not be applied (insufficient
	// capital, position limit, invariant violation, or split failure).
	OutcomeRejectedByLedger
	// OutcomeFilled: the plan was applied as a simulated fill.
	OutcomeFilled
)

func (o DecisionOutcome) String() string {
	switch o {
	case OutcomeNoSignal:
		return "NO_SIGNAL"
	case OutcomeRejectedByPlanner:
		return "REJECTED_PLANNER"
	case OutcomeRejectedByLedger:
		return "REJECTED_LEDGER"
	case OutcomeFilled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// Decision records the outcome of one snapshot in one cycle. The per-cycle
// decision sequence preserves snapshot order.
type Decision struct {
	Snapshot    PriceSnapshot
	Outcome     DecisionOutcome
	Opportunity *ArbitrageOpportunity // nil when no signal
	Plan        *ExecutionPlan        // nil unless planned
	Fill        *Fill                 // nil unless filled
	Err         error                 // set on ledger rejection
}
