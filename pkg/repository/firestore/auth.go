package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TokensCollection is the collection holding session tokens
const TokensCollection = "tokens"

func (r *Firestore) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	docRef := r.collection(TokensCollection).Doc(token.ID.String())
	if _, err := docRef.Set(ctx, token); err != nil {
		return goerr.Wrap(err, "failed to put token to firestore", goerr.V("token_id", token.ID))
	}

	return nil
}

func (r *Firestore) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	docRef := r.collection(TokensCollection).Doc(tokenID.String())
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(err, "failed to get token from firestore", goerr.V("token_id", tokenID))
	}

	var token auth.Token
	if err := doc.DataTo(&token); err != nil {
		return nil, goerr.Wrap(auth.ErrInvalidToken, "failed to unmarshal token",
			goerr.V("token_id", tokenID), goerr.V("error", err.Error()))
	}

	return &token, nil
}

func (r *Firestore) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	docRef := r.collection(TokensCollection).Doc(tokenID.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return goerr.Wrap(err, "failed to get token from firestore", goerr.V("token_id", tokenID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete token from firestore", goerr.V("token_id", tokenID))
	}

	return nil
}

// DeleteTokensByUsername needs the (username ASC, expires_at DESC) index created by migrate
func (r *Firestore) DeleteTokensByUsername(ctx context.Context, username string) (int, error) {
	if username == "" {
		return 0, goerr.New("username is empty")
	}

	iter := r.collection(TokensCollection).
		Where("username", "==", username).
		OrderBy("expires_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var removed int
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, goerr.Wrap(err, "failed to iterate tokens", goerr.V("username", username))
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return removed, goerr.Wrap(err, "failed to delete token",
				goerr.V("username", username),
				goerr.V("token_id", doc.Ref.ID))
		}
		removed++
	}

	return removed, nil
}
