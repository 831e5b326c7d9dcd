package behavior

import (
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/zeusync/scenecore/internal/core/entity"
)

// Tag identifies a behavior type. It is the xxhash of the package-qualified
// type name, so it is stable across processes and builds.
type Tag uint64

func (t Tag) String() string { return strconv.FormatUint(uint64(t), 16) }

// TagOf returns the tag of behavior type T.
func TagOf[T any]() Tag {
	return tagOfType(reflect.TypeFor[T]())
}

func tagOfType(rt reflect.Type) Tag {
	return Tag(xxhash.Sum64String(typeName(rt)))
}

func typeName(rt reflect.Type) string {
	if rt.PkgPath() == "" {
		return rt.String()
	}
	return rt.PkgPath() + "." + rt.Name()
}

// Factory produces the initial value of a behavior for an entity that does
// not have one yet.
type Factory[T any] func(e entity.Entity) T

// FactoryTable maps behavior tags to factories, so a registry can find the
// initial-value constructor for its type without per-type static dispatch.
type FactoryTable struct {
	factories map[Tag]any
}

// NewFactoryTable creates an empty table.
func NewFactoryTable() *FactoryTable {
	return &FactoryTable{factories: make(map[Tag]any)}
}

// RegisterFactory installs fn as the factory of T, replacing any previous one.
func RegisterFactory[T any](tbl *FactoryTable, fn Factory[T]) {
	tbl.factories[TagOf[T]()] = fn
}

// FactoryFor returns the registered factory of T.
func FactoryFor[T any](tbl *FactoryTable) (Factory[T], bool) {
	if tbl == nil {
		return nil, false
	}
	f, ok := tbl.factories[TagOf[T]()]
	if !ok {
		return nil, false
	}
	return f.(Factory[T]), true
}

// Len returns the number of registered factories.
func (tbl *FactoryTable) Len() int { return len(tbl.factories) }
