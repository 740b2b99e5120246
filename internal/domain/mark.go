package domain

// Mark identifies board-cell occupancy and player assignment.
type Mark int32

const (
	// MarkUndefined is an unassigned player or an empty board cell.
	MarkUndefined Mark = iota
	MarkX
	MarkO
)

// Opponent returns the opposing mark, or MarkUndefined for MarkUndefined.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkUndefined
	}
}

func (m Mark) String() string {
	switch m {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return "undefined"
	}
}
