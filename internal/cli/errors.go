package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// usageError is a command-line misuse the caller can fix by changing arguments.
type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return "usage: " + e.msg
}

func errUsage(msg string) error {
	return usageError{msg: msg}
}
