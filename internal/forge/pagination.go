package forge

// PaginationPhase identifies the state of a paginated enumeration.
type PaginationPhase int

// Pagination phases.
const (
	PhaseFetching PaginationPhase = iota
	PhaseDone
	PhaseFailed
)

const firstPageNumberConstant = 1

// PaginationState is the enumeration state: Fetching(page), Done or Failed(failure).
type PaginationState struct {
	Phase   PaginationPhase
	Page    int
	Failure error
}

// PageResult is the outcome of requesting and decoding one page.
type PageResult struct {
	Repositories []Repository
	Failure      error
}

// InitialPaginationState starts fetching at the first page.
func InitialPaginationState() PaginationState {
	return PaginationState{Phase: PhaseFetching, Page: firstPageNumberConstant}
}

// Advance computes the state following a page result. Done and Failed are
// terminal. A failure fails the enumeration, an empty page completes it and any
// other page moves on to the next page number, whatever its size.
func Advance(state PaginationState, result PageResult) PaginationState {
	if state.Phase != PhaseFetching {
		return state
	}
	if result.Failure != nil {
		return PaginationState{Phase: PhaseFailed, Page: state.Page, Failure: result.Failure}
	}
	if len(result.Repositories) == 0 {
		return PaginationState{Phase: PhaseDone, Page: state.Page}
	}
	return PaginationState{Phase: PhaseFetching, Page: state.Page + 1}
}

// Terminal reports whether no further page should be requested.
func (state PaginationState) Terminal() bool {
	return state.Phase != PhaseFetching
}
