package db

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"github.com/charmbracelet/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreDB maps the single-table layout onto one Firestore collection.
// Each document carries its pk and sk as fields so a partition is one
// equality filter plus an optional sort-key range. Query needs the composite
// (pk, sk) indexes in firestore.indexes.json, deployed with
// `firebase deploy --only firestore:indexes`; rename their collectionGroup
// when FIRESTORE_COLLECTION is not "journal".
type FirestoreDB struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreDB initializes a new Firestore client. An empty credentialsPath
// falls back to application default credentials (and the emulator, when
// FIRESTORE_EMULATOR_HOST is set).
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath, collection string) (*FirestoreDB, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Info("connected to Firestore", "project", projectID, "collection", collection)

	return &FirestoreDB{
		client:     client,
		collection: collection,
	}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// DocumentID encodes a key as a Firestore document id. Both halves are
// path-escaped so a "/" in a user id cannot create a sub-collection.
func DocumentID(key Key) string {
	return url.PathEscape(key.PK) + "|" + url.PathEscape(key.SK)
}

func (db *FirestoreDB) doc(key Key) *firestore.DocumentRef {
	return db.client.Collection(db.collection).Doc(DocumentID(key))
}

func (db *FirestoreDB) Get(ctx context.Context, key Key) (Item, error) {
	snap, err := db.doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Item{}, notFound(key)
	}
	if err != nil {
		return Item{}, storeErr("get item", err)
	}
	return itemFromSnapshot(snap)
}

func (db *FirestoreDB) Put(ctx context.Context, item Item) error {
	_, err := db.doc(item.Key).Set(ctx, map[string]interface{}{
		"pk":    item.PK,
		"sk":    item.SK,
		"attrs": item.Attrs,
	})
	if err != nil {
		return storeErr("put item", err)
	}
	return nil
}

func (db *FirestoreDB) Query(ctx context.Context, pk string, opts QueryOptions) ([]Item, error) {
	q := db.client.Collection(db.collection).Where("pk", "==", pk)
	if opts.SKPrefix != "" {
		q = q.Where("sk", ">=", opts.SKPrefix).Where("sk", "<", prefixEnd(opts.SKPrefix))
	}
	dir := firestore.Asc
	if opts.Descending {
		dir = firestore.Desc
	}
	q = q.OrderBy("sk", dir)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var items []Item
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("query items", err)
		}
		item, err := itemFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (db *FirestoreDB) Update(ctx context.Context, key Key, attrs map[string]any) (Item, error) {
	updates := make([]firestore.Update, 0, len(attrs))
	for k, v := range attrs {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{"attrs", k}, Value: v})
	}
	if len(updates) > 0 {
		_, err := db.doc(key).Update(ctx, updates)
		if status.Code(err) == codes.NotFound {
			return Item{}, notFound(key)
		}
		if err != nil {
			return Item{}, storeErr("update item", err)
		}
	}
	return db.Get(ctx, key)
}

func (db *FirestoreDB) Delete(ctx context.Context, key Key) error {
	if _, err := db.doc(key).Delete(ctx); err != nil {
		return storeErr("delete item", err)
	}
	return nil
}

func itemFromSnapshot(snap *firestore.DocumentSnapshot) (Item, error) {
	data := snap.Data()
	pk, _ := data["pk"].(string)
	sk, _ := data["sk"].(string)
	attrs, ok := data["attrs"].(map[string]interface{})
	if !ok {
		return Item{}, storeErr("parse item", fmt.Errorf("document %s has no attrs map", snap.Ref.ID))
	}
	return Item{Key: Key{PK: pk, SK: sk}, Attrs: attrs}, nil
}
