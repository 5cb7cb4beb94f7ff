package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/repository/firestore"
	"github.com/secmon-lab/portalos/pkg/repository/memory"
)

func isNotFound(err error) bool {
	return errors.Is(err, firestore.ErrNotFound) || errors.Is(err, memory.ErrNotFound)
}

func newToken(username string, role types.Role) *auth.Token {
	// unique usernames keep runs against a shared database apart
	name := fmt.Sprintf("%s-%d", username, time.Now().UnixNano())
	return auth.NewToken(auth.NewIdentity(name, "Test User", role), time.Hour)
}

func runAuthRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Run("PutToken and GetToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := newToken("ana", types.RoleAdmin)
		gt.NoError(t, repo.PutToken(ctx, token)).Required()

		retrieved, err := repo.GetToken(ctx, token.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, retrieved.ID).Equal(token.ID)
		gt.Value(t, retrieved.Secret).Equal(token.Secret)
		gt.Value(t, retrieved.Identity()).Equal(token.Identity())

		// Firestore keeps microsecond precision
		if diff := retrieved.ExpiresAt.Sub(token.ExpiresAt); diff > time.Second || diff < -time.Second {
			t.Errorf("ExpiresAt mismatch: got %v, want %v, diff %v", retrieved.ExpiresAt, token.ExpiresAt, diff)
		}
		if diff := retrieved.CreatedAt.Sub(token.CreatedAt); diff > time.Second || diff < -time.Second {
			t.Errorf("CreatedAt mismatch: got %v, want %v, diff %v", retrieved.CreatedAt, token.CreatedAt, diff)
		}
	})

	t.Run("GetToken not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), auth.NewTokenID())
		gt.Value(t, err).NotNil()
		gt.B(t, isNotFound(err)).True()
	})

	t.Run("GetToken rejects malformed ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetToken(context.Background(), auth.TokenID("../tokens"))
		gt.Error(t, err).Is(auth.ErrInvalidTokenID)
	})

	t.Run("DeleteToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		token := newToken("luis", types.RolePicker)
		gt.NoError(t, repo.PutToken(ctx, token)).Required()
		gt.NoError(t, repo.DeleteToken(ctx, token.ID)).Required()

		_, err := repo.GetToken(ctx, token.ID)
		gt.B(t, isNotFound(err)).True()
	})

	t.Run("DeleteToken not found", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.DeleteToken(context.Background(), auth.NewTokenID())
		gt.B(t, isNotFound(err)).True()
	})

	t.Run("DeleteTokensByUsername", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := newToken("marta", types.RolePicker)
		second := auth.NewToken(first.Identity(), 2*time.Hour)
		other := newToken("pedro", types.RolePicker)
		for _, tok := range []*auth.Token{first, second, other} {
			gt.NoError(t, repo.PutToken(ctx, tok)).Required()
		}

		removed, err := repo.DeleteTokensByUsername(ctx, first.Username)
		gt.NoError(t, err).Required()
		gt.Value(t, removed).Equal(2)

		_, err = repo.GetToken(ctx, second.ID)
		gt.B(t, isNotFound(err)).True()

		kept, err := repo.GetToken(ctx, other.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, kept.Username).Equal(other.Username)
	})

	t.Run("Token validation on Put", func(t *testing.T) {
		repo := newRepo(t)

		invalid := &auth.Token{
			ID:        auth.NewTokenID(),
			Secret:    auth.NewTokenSecret(),
			Username:  "",
			Role:      types.RolePicker,
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		}
		gt.Value(t, repo.PutToken(context.Background(), invalid)).NotNil()
	})
}

func TestMemoryRepository(t *testing.T) {
	runAuthRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreRepository(t *testing.T) {
	runAuthRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		t.Helper()

		projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
		if projectID == "" {
			t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
		}

		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
		if databaseID == "" {
			t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
		}

		ctx := context.Background()
		prefix := fmt.Sprintf("test_%d_", time.Now().UnixNano())
		repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
		if err != nil {
			t.Fatalf("failed to create firestore repository: %v", err)
		}

		t.Cleanup(func() {
			if err := repo.Close(); err != nil {
				t.Errorf("failed to close firestore repository: %v", err)
			}
		})

		return repo
	})
}
