package memory

import "github.com/secmon-lab/portalos/pkg/domain/interfaces"

// ErrNotFound is an alias of interfaces.ErrNotFound
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps sessions in process memory. Sessions are lost on restart.
type Memory struct {
	tokens *tokenStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		tokens: newTokenStore(),
	}
}

func (m *Memory) Close() error {
	return nil
}
