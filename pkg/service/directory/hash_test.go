package directory_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/service/directory"
)

func TestHashPassword(t *testing.T) {
	t.Run("known digest", func(t *testing.T) {
		gt.Value(t, directory.HashPassword("admin123")).
			Equal("240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9")
	})

	t.Run("deterministic", func(t *testing.T) {
		gt.Value(t, directory.HashPassword("picker123")).Equal(directory.HashPassword("picker123"))
	})

	t.Run("different inputs differ", func(t *testing.T) {
		gt.Value(t, directory.HashPassword("picker123")).NotEqual(directory.HashPassword("picker124"))
	})

	t.Run("empty string is hashed", func(t *testing.T) {
		gt.Value(t, directory.HashPassword("")).
			Equal("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	})
}
