package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/gcp"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

func TestStatic(t *testing.T) {
	locs := []models.Location{
		{ID: "uptown", Name: "Uptown", Menus: []models.DocumentDescriptor{{Name: "Dinner", StoragePath: "uptown/dinner.pdf"}}},
		{ID: "downtown", Name: "Downtown", Menus: []models.DocumentDescriptor{
			{Name: "Lunch", StoragePath: "downtown/lunch.pdf"},
			{Name: "Drinks", SourceURL: "https://cdn.example.com/drinks.pdf"},
		}},
	}
	s := NewStatic(locs)
	ctx := context.Background()

	docs, err := s.Documents(ctx, "downtown")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if diff := cmp.Diff(locs[1].Menus, docs); diff != "" {
		t.Errorf("menus mismatch (-want +got):\n%s", diff)
	}

	// Callers must not be able to mutate the catalog.
	docs[0].Name = "changed"
	again, _ := s.Documents(ctx, "downtown")
	if again[0].Name != "Lunch" {
		t.Error("Documents returned shared storage")
	}

	all, err := s.Locations(ctx)
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	var ids []string
	for _, l := range all {
		ids = append(ids, l.ID)
	}
	if diff := cmp.Diff([]string{"downtown", "uptown"}, ids); diff != "" {
		t.Errorf("location order (-want +got):\n%s", diff)
	}

	if _, err := s.Documents(ctx, "nowhere"); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("err = %v, want ErrLocationNotFound", err)
	}
}

func TestFirestoreEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := gcp.NewFirestoreClient(ctx, "menuview-test")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer client.Close()

	f := NewFirestore(client, "locations-test")
	d := models.DocumentDescriptor{Name: "Lunch", StoragePath: "emu/lunch.pdf", PageCount: 2, FileHash: "abc123"}
	if err := f.AddDocument(ctx, "emu", d); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if err := f.AddDocument(ctx, "emu", d); err != nil {
		t.Fatalf("AddDocument again: %v", err)
	}

	docs, err := f.Documents(ctx, "emu")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if diff := cmp.Diff([]models.DocumentDescriptor{d}, docs); diff != "" {
		t.Errorf("menus mismatch (-want +got):\n%s", diff)
	}

	id, found, err := f.FindByHash(ctx, "abc123")
	if err != nil || !found || id != "emu" {
		t.Errorf("FindByHash = %q, %v, %v", id, found, err)
	}

	if _, err := f.Documents(ctx, "missing-location"); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("err = %v, want ErrLocationNotFound", err)
	}
}
