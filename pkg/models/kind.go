package models

import "fmt"

// Kind identifies the position of an item in the storage hierarchy.
type Kind string

// Kinds in hierarchy order. The string values are the names used on the wire.
const (
	KindCabinet  Kind = "armoire"
	KindShelf    Kind = "rayon"
	KindBinder   Kind = "classeur"
	KindFolder   Kind = "dossier"
	KindDivider  Kind = "intercalaire"
	KindDocument Kind = "document"
)

// Level is the depth of a kind, cabinet being 0.
type Level int

const (
	LevelCabinet Level = iota
	LevelShelf
	LevelBinder
	LevelFolder
	LevelDivider
	LevelDocument
)

// LevelCount is the number of levels, documents included.
const LevelCount = int(LevelDocument) + 1

var kindsByLevel = [LevelCount]Kind{
	KindCabinet, KindShelf, KindBinder, KindFolder, KindDivider, KindDocument,
}

var levelNames = [LevelCount]string{
	"cabinet", "shelf", "binder", "folder", "divider", "document",
}

var levelPlurals = [LevelCount]string{
	"cabinets", "shelves", "binders", "folders", "dividers", "documents",
}

// Levels returns every level from cabinet to document.
func Levels() []Level {
	return []Level{LevelCabinet, LevelShelf, LevelBinder, LevelFolder, LevelDivider, LevelDocument}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, err := k.level()
	return err == nil
}

// Level returns the depth of the kind. Unknown kinds map to LevelDocument.
func (k Kind) Level() Level {
	l, err := k.level()
	if err != nil {
		return LevelDocument
	}
	return l
}

func (k Kind) level() (Level, error) {
	for i, kk := range kindsByLevel {
		if kk == k {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown item kind %q", string(k))
}

// Label is the English name of the kind ("cabinet", "shelf", ...).
func (k Kind) Label() string {
	return k.Level().String()
}

// Valid reports whether l is within cabinet..document.
func (l Level) Valid() bool {
	return l >= LevelCabinet && l <= LevelDocument
}

// Kind returns the kind stored at this level.
func (l Level) Kind() Kind {
	if !l.Valid() {
		return ""
	}
	return kindsByLevel[l]
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Plural returns the plural English label, used in messages.
func (l Level) Plural() string {
	if !l.Valid() {
		return l.String()
	}
	return levelPlurals[l]
}

// Child returns the next deeper level.
func (l Level) Child() Level {
	if l >= LevelDocument {
		return LevelDocument
	}
	return l + 1
}

// Parent returns the next shallower level.
func (l Level) Parent() Level {
	if l <= LevelCabinet {
		return LevelCabinet
	}
	return l - 1
}

// ParseLevel accepts either the English label or the wire kind name.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return Kind(s).level()
}
