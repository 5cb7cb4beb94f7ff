package model

// Outcome is the normalized answer of a credential check
type Outcome struct {
	Success bool
	// Role is the role string as reported by the directory service. The
	// session layer parses it.
	Role    string
	Name    string
	Message string
	Err     error
}

// Result is the normalized answer of a directory mutation
type Result struct {
	Success bool
	Message string
	Err     error
}

// UserList is the normalized answer of a directory listing
type UserList struct {
	Success bool
	Users   []User
	Message string
	Err     error
}

// Succeeded returns a successful Result
func Succeeded(msg string) *Result {
	return &Result{Success: true, Message: msg}
}

// Failed returns a failed Result with a user-facing message. err keeps the
// classified cause for logging and errors.Is.
func Failed(err error, msg string) *Result {
	return &Result{Success: false, Message: msg, Err: err}
}
