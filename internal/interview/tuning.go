package interview

// Tuning collects the heuristic thresholds of the engine. The defaults mirror
// long-standing production values; none of them carries a clinical
// justification, which is exactly why they are fields and not constants.
type Tuning struct {
	// CoverageRatio is the fraction of a complaint's significant keywords that
	// must appear in the transcript before the complaint can complete.
	CoverageRatio float64
	// MinQuestions is the minimum number of questions asked before any
	// complaint can complete.
	MinQuestions int
	// BaseBudget caps total questions for a plain single-complaint interview.
	BaseBudget int
	// EscalationFactor widens the budget when the escalation flag is set.
	EscalationFactor float64
	// UnlimitedMidpoint stands in for budget/2 when the budget is uncapped.
	UnlimitedMidpoint int
	// RecentWindow bounds how many raw messages are forwarded to the model for
	// conversational context. Derived topic lists always use the full history.
	RecentWindow int
}

func DefaultTuning() Tuning {
	return Tuning{
		CoverageRatio:     0.5,
		MinQuestions:      8,
		BaseBudget:        14,
		EscalationFactor:  1.5,
		UnlimitedMidpoint: 10,
		RecentWindow:      20,
	}
}
