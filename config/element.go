package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Element is one node of the configuration tree: a named directive with an
// optional argument, attribute map, and ordered child directives.
//
// Worker targets are annotations attached by the worker assignment pass; an
// element with no targets runs on every worker.
type Element struct {
	// Name is the directive name, e.g. "source", "match", "filter", "label".
	Name string
	// Arg is the directive argument, e.g. the match pattern or label name.
	Arg string
	// Attrs holds the directive's scalar parameters.
	Attrs map[string]string
	// Children holds nested directives in document order.
	Children []*Element

	targetWorkerIDs []int
}

// NewElement creates an element. A nil attrs map is replaced with an empty one
// so callers can set attributes without a nil check.
func NewElement(name, arg string, attrs map[string]string, children []*Element) *Element {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Element{
		Name:     name,
		Arg:      arg,
		Attrs:    attrs,
		Children: children,
	}
}

// Attr returns the value of an attribute, or "" when absent.
func (e *Element) Attr(key string) string {
	return e.Attrs[key]
}

// HasAttr reports whether an attribute is present, even when empty.
func (e *Element) HasAttr(key string) bool {
	_, ok := e.Attrs[key]
	return ok
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(key, value string) {
	e.Attrs[key] = value
}

// Elements returns the direct children whose name matches any of the given
// names, preserving document order. With no names it returns all children.
func (e *Element) Elements(names ...string) []*Element {
	if len(names) == 0 {
		return slices.Clone(e.Children)
	}
	var out []*Element
	for _, child := range e.Children {
		if slices.Contains(names, child.Name) {
			out = append(out, child)
		}
	}
	return out
}

// AppendChild adds a child after the existing children.
func (e *Element) AppendChild(child *Element) {
	e.Children = append(e.Children, child)
}

// RemoveChildren removes all direct children with the given name.
func (e *Element) RemoveChildren(name string) {
	e.Children = slices.DeleteFunc(e.Children, func(c *Element) bool {
		return c.Name == name
	})
}

// Clone returns a deep copy of the element, including worker annotations.
func (e *Element) Clone() *Element {
	clone := &Element{
		Name:            e.Name,
		Arg:             e.Arg,
		Attrs:           maps.Clone(e.Attrs),
		targetWorkerIDs: slices.Clone(e.targetWorkerIDs),
	}
	if clone.Attrs == nil {
		clone.Attrs = map[string]string{}
	}
	for _, child := range e.Children {
		clone.Children = append(clone.Children, child.Clone())
	}
	return clone
}

// SetTargetWorkerID annotates the element and all of its descendants with a
// worker id. Annotating the same id twice is a no-op.
func (e *Element) SetTargetWorkerID(id int) {
	if !slices.Contains(e.targetWorkerIDs, id) {
		e.targetWorkerIDs = append(e.targetWorkerIDs, id)
	}
	for _, child := range e.Children {
		child.SetTargetWorkerID(id)
	}
}

// TargetWorkerIDs returns a copy of the element's worker annotations.
func (e *Element) TargetWorkerIDs() []int {
	return slices.Clone(e.targetWorkerIDs)
}

// ForEveryWorker reports whether the element runs on every worker, which is
// the case for elements never claimed by a <worker> directive.
func (e *Element) ForEveryWorker() bool {
	return len(e.targetWorkerIDs) == 0
}

// ForWorker reports whether the element should run on the given worker.
func (e *Element) ForWorker(id int) bool {
	return e.ForEveryWorker() || slices.Contains(e.targetWorkerIDs, id)
}

// ForAnotherWorker reports whether the element is claimed exclusively by
// workers other than the given one.
func (e *Element) ForAnotherWorker(id int) bool {
	return !e.ForEveryWorker() && !slices.Contains(e.targetWorkerIDs, id)
}

// String renders the directive header for log and error messages.
func (e *Element) String() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(e.Name)
	if e.Arg != "" {
		b.WriteByte(' ')
		b.WriteString(e.Arg)
	}
	b.WriteByte('>')
	if len(e.Attrs) > 0 || len(e.Children) > 0 {
		fmt.Fprintf(&b, " (%d attrs, %d children)", len(e.Attrs), len(e.Children))
	}
	return b.String()
}
