package engine

import "fmt"

// InvariantError is the panic value raised when an internal helper is asked to work on an id
// that the dispatcher should already have validated. Seeing one means the document was
// inconsistent before the command ran.
type InvariantError struct {
	Op  string
	ID  string
	Msg string
}

func (e *InvariantError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("engine invariant violated in %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("engine invariant violated in %s (%s): %s", e.Op, e.ID, e.Msg)
}

func fault(op, id, msg string) {
	panic(&InvariantError{Op: op, ID: id, Msg: msg})
}
