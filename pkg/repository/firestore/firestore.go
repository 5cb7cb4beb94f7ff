package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"google.golang.org/api/option"
)

// ErrNotFound is an alias of interfaces.ErrNotFound
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	clientOptions    []option.ClientOption
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name. Tests use it to isolate runs.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

// WithClientOptions passes options such as credentials to the Firestore client
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(f *Firestore) {
		f.clientOptions = append(f.clientOptions, opts...)
	}
}

// New connects to the database. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	f := &Firestore{}
	for _, opt := range opts {
		opt(f)
	}

	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, f.clientOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}
	f.client = client

	return f, nil
}

func (f *Firestore) collection(name string) *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + name)
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
