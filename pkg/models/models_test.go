package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindLevels(t *testing.T) {
	tests := []struct {
		kind  Kind
		level Level
		label string
	}{
		{KindCabinet, LevelCabinet, "cabinet"},
		{KindShelf, LevelShelf, "shelf"},
		{KindBinder, LevelBinder, "binder"},
		{KindFolder, LevelFolder, "folder"},
		{KindDivider, LevelDivider, "divider"},
		{KindDocument, LevelDocument, "document"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.True(t, tt.kind.Valid())
			assert.Equal(t, tt.level, tt.kind.Level())
			assert.Equal(t, tt.kind, tt.level.Kind())
			assert.Equal(t, tt.label, tt.kind.Label())
		})
	}

	assert.False(t, Kind("drawer").Valid())
	assert.Equal(t, LevelShelf, LevelCabinet.Child())
	assert.Equal(t, LevelDocument, LevelDocument.Child())
	assert.Equal(t, LevelCabinet, LevelCabinet.Parent())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("binder")
	require.NoError(t, err)
	assert.Equal(t, LevelBinder, l)

	l, err = ParseLevel("intercalaire")
	require.NoError(t, err)
	assert.Equal(t, LevelDivider, l)

	_, err = ParseLevel("drawer")
	assert.Error(t, err)
}

func TestItemDecodeDocument(t *testing.T) {
	raw := `{
		"id": "QS9CL0MvRC9pbnZvaWNlLnBkZg==",
		"name": "invoice.pdf",
		"type": "document",
		"path": "A/B/C/D/invoice.pdf",
		"created_at": "2025-01-11T10:00:00.123456",
		"modified_at": "2025-01-11T11:00:00",
		"size": 2048,
		"extension": "pdf",
		"mime_type": "application/pdf",
		"tags": ["urgent"]
	}`

	var item Item
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, KindDocument, item.Kind)
	require.NotNil(t, item.Document)
	assert.Nil(t, item.Container)
	assert.Equal(t, int64(2048), item.Document.Size)
	assert.Equal(t, "pdf", item.Extension())
	assert.Equal(t, "invoice", item.BaseName())
	assert.Equal(t, "invoice.pdf", item.FileName())
	assert.True(t, item.TagsKnown)
	assert.True(t, item.HasTag("urgent"))
	assert.False(t, item.IsDividerCandidate())
	assert.Equal(t, 2025, item.CreatedAt.Year())
	assert.Equal(t, 123456*time.Microsecond, time.Duration(item.CreatedAt.Nanosecond()))
}

func TestItemDecodeContainer(t *testing.T) {
	raw := `{"id":"QQ==","name":"Archives","type":"armoire","path":"Archives",
		"created_at":"2025-01-11T10:00:00","modified_at":"2025-01-11T10:00:00","children_count":3}`

	var item Item
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	assert.Equal(t, LevelCabinet, item.Level())
	require.NotNil(t, item.Container)
	assert.Nil(t, item.Document)
	assert.Equal(t, 3, item.ChildCount())
	assert.False(t, item.TagsKnown)
	assert.True(t, item.IsDividerCandidate())
	assert.Equal(t, "Archives", item.BaseName())
}

func TestItemDecodeRejectsUnknownKind(t *testing.T) {
	var item Item
	err := json.Unmarshal([]byte(`{"id":"x","name":"x","type":"drawer"}`), &item)
	assert.Error(t, err)
}

func TestItemBaseNameWithoutExtensionInName(t *testing.T) {
	item := Item{ID: "1", Name: "scan", Kind: KindDocument, Document: &DocumentInfo{Extension: "png"}}
	assert.Equal(t, "scan", item.BaseName())
	assert.Equal(t, "scan.png", item.FileName())
}

func TestItemEncodeKeepsWireShape(t *testing.T) {
	item := Item{
		ID: "1", Name: "a.txt", Kind: KindDocument,
		Document:  &DocumentInfo{Size: 3, Extension: "txt"},
		TagsKnown: true, Tags: []string{},
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "document", generic["type"])
	assert.Equal(t, "txt", generic["extension"])
	assert.NotContains(t, generic, "children_count")
	assert.Contains(t, generic, "tags")
}

func TestTreeNodeWalk(t *testing.T) {
	root := TreeNode{ID: "a", Children: []TreeNode{
		{ID: "b", Children: []TreeNode{{ID: "c"}}},
		{ID: "d"},
	}}

	var visited []string
	var depths []int
	root.Walk(func(n TreeNode, depth int) {
		visited = append(visited, n.ID)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, visited)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
}
