package models

import "strings"

// DefaultDocumentName is shown for descriptors that carry no display name.
const DefaultDocumentName = "Menu"

// DocumentDescriptor is one menu attached to a location. It is stored inside
// the location record in Firestore and is never mutated by the viewer.
type DocumentDescriptor struct {
	Name        string `firestore:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty" koanf:"name"`
	SourceURL   string `firestore:"sourceUrl,omitempty" json:"sourceUrl,omitempty" yaml:"source_url,omitempty" koanf:"source_url"`
	StoragePath string `firestore:"storagePath,omitempty" json:"storagePath,omitempty" yaml:"storage_path,omitempty" koanf:"storage_path"`
	PageCount   int    `firestore:"pageCount,omitempty" json:"pageCount,omitempty" yaml:"page_count,omitempty" koanf:"page_count"`
	FileHash    string `firestore:"fileHash,omitempty" json:"fileHash,omitempty" yaml:"file_hash,omitempty" koanf:"file_hash"`
}

// DisplayName returns the trimmed name, or DefaultDocumentName when blank.
func (d DocumentDescriptor) DisplayName() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return DefaultDocumentName
}

// Location is a selectable venue with its ordered list of menus.
type Location struct {
	ID    string               `firestore:"-" json:"id" yaml:"id" koanf:"id"`
	Name  string               `firestore:"name,omitempty" json:"name" yaml:"name" koanf:"name"`
	Menus []DocumentDescriptor `firestore:"menus,omitempty" json:"menus,omitempty" yaml:"menus,omitempty" koanf:"menus"`
}
