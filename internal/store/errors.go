package store

import "fmt"

// QueryError is returned when the backend rejects or fails to execute a
// statement after a connection was obtained.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func queryErr(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

// UnknownDialectError is returned when a driver name has no registered dialect.
type UnknownDialectError struct {
	Name      string
	Available []string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown database driver %q\nAvailable drivers: %v\nHint: Check database.driver in jokebox.yaml", e.Name, e.Available)
}
