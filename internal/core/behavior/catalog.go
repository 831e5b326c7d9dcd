package behavior

import (
	"errors"
	"fmt"
	"iter"
)

// ErrDuplicateBehavior is raised when a second registry of the same behavior
// type is added to a Catalog.
var ErrDuplicateBehavior = errors.New("behavior: registry already registered")

// Catalog indexes the registries of one world by tag and by name, so
// collaborators such as scene loaders and persistence indices can resolve a
// behavior dynamically.
type Catalog struct {
	byTag  map[Tag]Store
	byName map[string]Tag
	order  []Store
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byTag:  make(map[Tag]Store),
		byName: make(map[string]Tag),
	}
}

// Add records s. It panics with ErrDuplicateBehavior if s's type is already present.
func (c *Catalog) Add(s Store) {
	if _, ok := c.byTag[s.Tag()]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateBehavior, s.Name()))
	}
	c.byTag[s.Tag()] = s
	c.byName[s.Name()] = s.Tag()
	c.order = append(c.order, s)
}

// Lookup returns the registry with tag.
func (c *Catalog) Lookup(tag Tag) (Store, bool) {
	s, ok := c.byTag[tag]
	return s, ok
}

// ByName returns the registry whose package-qualified type name is name.
func (c *Catalog) ByName(name string) (Store, bool) {
	tag, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.Lookup(tag)
}

// All yields registries in the order they were added.
func (c *Catalog) All() iter.Seq[Store] {
	return func(yield func(Store) bool) {
		for _, s := range c.order {
			if !yield(s) {
				return
			}
		}
	}
}

// Len returns the number of registries.
func (c *Catalog) Len() int { return len(c.order) }

// Lookup returns the typed registry of T from c.
func Lookup[T any](c *Catalog) (*Registry[T], bool) {
	s, ok := c.Lookup(TagOf[T]())
	if !ok {
		return nil, false
	}
	r, ok := s.(*Registry[T])
	return r, ok
}
