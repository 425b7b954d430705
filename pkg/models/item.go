package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Match locations reported by the search endpoint.
const (
	MatchFilename = "filename"
	MatchContent  = "content"
)

// DocumentInfo holds the fields that only exist for documents.
type DocumentInfo struct {
	Size      int64
	Extension string
	MimeType  string
}

// ContainerInfo holds the fields that only exist for non-document kinds.
type ContainerInfo struct {
	ChildCount int
	// HasDividers is set by servers that report it for folders.
	HasDividers *bool
}

// Item is any node of the hierarchy, cabinet through document.
// Exactly one of Document and Container is set, depending on Kind.
type Item struct {
	ID         string
	Name       string
	Kind       Kind
	Path       string
	CreatedAt  time.Time
	ModifiedAt time.Time

	// Tags is only meaningful when TagsKnown is true; otherwise the
	// assignments have to be fetched per item.
	Tags      []string
	TagsKnown bool

	// Match is set on search results ("filename" or "content").
	Match string

	Document  *DocumentInfo
	Container *ContainerInfo
}

// Level returns the depth of the item.
func (i Item) Level() Level {
	return i.Kind.Level()
}

// IsDocument reports whether the item is a document leaf.
func (i Item) IsDocument() bool {
	return i.Kind == KindDocument
}

// Extension returns the document extension, or "" for containers.
func (i Item) Extension() string {
	if i.Document == nil {
		return ""
	}
	return i.Document.Extension
}

// IsDividerCandidate reports whether the item belongs to the divider column
// when browsing a folder: no file extension and not a document.
func (i Item) IsDividerCandidate() bool {
	return i.Extension() == "" && i.Kind != KindDocument
}

// BaseName returns the name without the document extension. The server may
// or may not include the extension in Name; both are handled.
func (i Item) BaseName() string {
	ext := i.Extension()
	if ext == "" {
		return i.Name
	}
	suffix := "." + ext
	if len(i.Name) > len(suffix) && strings.EqualFold(i.Name[len(i.Name)-len(suffix):], suffix) {
		return i.Name[:len(i.Name)-len(suffix)]
	}
	return i.Name
}

// FileName returns the name with the document extension attached.
func (i Item) FileName() string {
	ext := i.Extension()
	if ext == "" {
		return i.Name
	}
	return i.BaseName() + "." + ext
}

// ChildCount returns the child count for containers, 0 for documents.
func (i Item) ChildCount() int {
	if i.Container == nil {
		return 0
	}
	return i.Container.ChildCount
}

// HasTag reports whether name is among the known tags of the item.
func (i Item) HasTag(name string) bool {
	for _, t := range i.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// wireItem is the JSON shape returned by the document service.
type wireItem struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          Kind      `json:"type"`
	Path          string    `json:"path"`
	CreatedAt     Timestamp `json:"created_at"`
	ModifiedAt    Timestamp `json:"modified_at"`
	Size          *int64    `json:"size,omitempty"`
	Extension     *string   `json:"extension,omitempty"`
	MimeType      *string   `json:"mime_type,omitempty"`
	ChildrenCount *int      `json:"children_count,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	HasDividers   *bool     `json:"has_intercalaires,omitempty"`
	MatchType     string    `json:"match_type,omitempty"`
}

// UnmarshalJSON decodes the service representation into the tagged form.
func (i *Item) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("decode item: missing id")
	}
	if !w.Type.Valid() {
		return fmt.Errorf("decode item %s: unknown kind %q", w.ID, string(w.Type))
	}

	out := Item{
		ID:         w.ID,
		Name:       w.Name,
		Kind:       w.Type,
		Path:       w.Path,
		CreatedAt:  w.CreatedAt.Time,
		ModifiedAt: w.ModifiedAt.Time,
		Match:      w.MatchType,
	}
	if w.Tags != nil {
		out.Tags = append([]string{}, (*w.Tags)...)
		out.TagsKnown = true
	}

	if w.Type == KindDocument {
		doc := &DocumentInfo{}
		if w.Size != nil {
			doc.Size = *w.Size
		}
		if w.Extension != nil {
			doc.Extension = *w.Extension
		}
		if w.MimeType != nil {
			doc.MimeType = *w.MimeType
		}
		out.Document = doc
	} else {
		c := &ContainerInfo{HasDividers: w.HasDividers}
		if w.ChildrenCount != nil {
			c.ChildCount = *w.ChildrenCount
		}
		out.Container = c
	}

	*i = out
	return nil
}

// MarshalJSON encodes the item in the service representation.
func (i Item) MarshalJSON() ([]byte, error) {
	w := wireItem{
		ID:         i.ID,
		Name:       i.Name,
		Type:       i.Kind,
		Path:       i.Path,
		CreatedAt:  Timestamp{i.CreatedAt},
		ModifiedAt: Timestamp{i.ModifiedAt},
		MatchType:  i.Match,
	}
	if i.TagsKnown {
		tags := append([]string{}, i.Tags...)
		w.Tags = &tags
	}
	if i.Document != nil {
		size, ext, mime := i.Document.Size, i.Document.Extension, i.Document.MimeType
		w.Size = &size
		if ext != "" {
			w.Extension = &ext
		}
		if mime != "" {
			w.MimeType = &mime
		}
	}
	if i.Container != nil {
		n := i.Container.ChildCount
		w.ChildrenCount = &n
		w.HasDividers = i.Container.HasDividers
	}
	return json.Marshal(w)
}

// IDs returns the identifiers of items, in order.
func IDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

// CloneItems returns a copy of the slice (nil stays nil).
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	return append([]Item(nil), items...)
}
