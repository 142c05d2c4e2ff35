package storage

import "fmt"

// NoSuchNamespaceError is returned when a namespace ID doesn't exist in the
// store.
type NoSuchNamespaceError struct {
	ID string
}

func (e NoSuchNamespaceError) Error() string {
	return fmt.Sprintf("no such namespace: %s", e.ID)
}

// NoSuchSequenceError is returned when one or more requested sequence IDs
// don't exist within a namespace load.
type NoSuchSequenceError struct {
	NamespaceID string
	LoadID      string
	SequenceIDs []string
}

func (e NoSuchSequenceError) Error() string {
	return fmt.Sprintf("missing sequences in namespace %s load %s: %v",
		e.NamespaceID, e.LoadID, e.SequenceIDs)
}
