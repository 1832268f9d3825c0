package materialize

// OutcomeKind classifies what happened to one repository.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeCloned OutcomeKind = iota
	OutcomeUpdated
	OutcomeFailed
)

// String returns a lowercase label for the outcome kind.
func (kind OutcomeKind) String() string {
	switch kind {
	case OutcomeCloned:
		return "cloned"
	case OutcomeUpdated:
		return "updated"
	default:
		return "failed"
	}
}

// Outcome records the result of materializing one repository.
type Outcome struct {
	RepositoryName string
	Path           string
	Kind           OutcomeKind
	// Failure explains a Failed outcome.
	Failure error
	// Warning carries a non-fatal problem, such as a failed pull on an Updated outcome.
	Warning error
}

// Succeeded reports whether the repository has a usable local copy.
func (outcome Outcome) Succeeded() bool {
	return outcome.Kind != OutcomeFailed
}

// Summary aggregates the outcomes of one materialization run.
type Summary struct {
	TargetRoot string
	Cloned     int
	Updated    int
	Failed     int
	Outcomes   []Outcome
}

// Successes counts clones and updates.
func (summary Summary) Successes() int {
	return summary.Cloned + summary.Updated
}

// Failures counts failed items.
func (summary Summary) Failures() int {
	return summary.Failed
}

// Summarize tallies outcomes in order.
func Summarize(targetRoot string, outcomes []Outcome) Summary {
	summary := Summary{TargetRoot: targetRoot, Outcomes: append([]Outcome{}, outcomes...)}
	for _, outcome := range outcomes {
		switch outcome.Kind {
		case OutcomeCloned:
			summary.Cloned++
		case OutcomeUpdated:
			summary.Updated++
		default:
			summary.Failed++
		}
	}
	return summary
}
