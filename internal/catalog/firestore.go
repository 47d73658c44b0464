package catalog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

// DefaultCollection holds one document per location with a "menus" array.
const DefaultCollection = "locations"

// Firestore reads locations from a Firestore collection.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore wraps client. An empty collection means DefaultCollection.
func NewFirestore(client *firestore.Client, collection string) *Firestore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Firestore{client: client, collection: collection}
}

func (f *Firestore) Documents(ctx context.Context, locationID string) ([]models.DocumentDescriptor, error) {
	snap, err := f.client.Collection(f.collection).Doc(locationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", locationID, ErrLocationNotFound)
		}
		return nil, fmt.Errorf("failed to read location %s: %w", locationID, err)
	}
	var loc models.Location
	if err := snap.DataTo(&loc); err != nil {
		return nil, fmt.Errorf("failed to decode location %s: %w", locationID, err)
	}
	return loc.Menus, nil
}

func (f *Firestore) Locations(ctx context.Context) ([]models.Location, error) {
	iter := f.client.Collection(f.collection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []models.Location
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list locations: %w", err)
		}
		var loc models.Location
		if err := snap.DataTo(&loc); err != nil {
			return nil, fmt.Errorf("failed to decode location %s: %w", snap.Ref.ID, err)
		}
		loc.ID = snap.Ref.ID
		out = append(out, loc)
	}
	return out, nil
}

// AddDocument appends d to the location's menus, creating the location
// record if needed. The file hash is mirrored into "menuHashes" so
// FindByHash can query it.
func (f *Firestore) AddDocument(ctx context.Context, locationID string, d models.DocumentDescriptor) error {
	ref := f.client.Collection(f.collection).Doc(locationID)
	data := map[string]interface{}{
		"menus": firestore.ArrayUnion(d),
	}
	if d.FileHash != "" {
		data["menuHashes"] = firestore.ArrayUnion(d.FileHash)
	}
	_, err := ref.Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to add menu to location %s: %w", locationID, err)
	}
	return nil
}

// FindByHash reports the location already holding a menu with fileHash.
func (f *Firestore) FindByHash(ctx context.Context, fileHash string) (string, bool, error) {
	docs, err := f.client.Collection(f.collection).
		Where("menuHashes", "array-contains", fileHash).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", false, fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, true, nil
	}
	return "", false, nil
}
