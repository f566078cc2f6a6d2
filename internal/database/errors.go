package database

// PersistenceError wraps any failure on the message write path: connectivity,
// constraint violations, anything the store reports. Callers decide whether
// it gates delivery; it is never retried here.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
