package taxonomy

import "fmt"

// MissingColumnError reports a rule-table sheet lacking a required column.
// Scoring is meaningless without the full taxonomy, so this is fatal.
type MissingColumnError struct {
	Sheet  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("taxonomy sheet %q: missing required column %q", e.Sheet, e.Column)
}
