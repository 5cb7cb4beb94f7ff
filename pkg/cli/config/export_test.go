package config

// NewSessionForTest creates a Session config for testing purposes
func NewSessionForTest(noAuth, cookieSecret string) *Session {
	return &Session{
		noAuth:       noAuth,
		cookieSecret: cookieSecret,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewPortalForTest creates a Portal config for testing purposes
func NewPortalForTest(path string) *Portal {
	return &Portal{path: path}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
	}
}
