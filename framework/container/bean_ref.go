package container

import (
	"reflect"
	"slices"
	"strings"
)

// Qualifier narrows a lookup among beans of the same type.
type Qualifier string

const (
	// Default is carried by every bean declared without explicit qualifiers.
	Default Qualifier = "@Default"

	// Any is carried by every bean.
	Any Qualifier = "@Any"
)

// Named returns the qualifier for a bean name.
func Named(name string) Qualifier { return Qualifier("@Named(" + name + ")") }

// BeanRef identifies wiring state: a type plus a qualifier set. Two refs are
// equal when their types are identical and their qualifier sets match,
// regardless of order or repetition, so BeanRef can be used as a map key.
type BeanRef struct {
	typ        reflect.Type
	qualifiers string
}

const qualifierSep = "\x1f"

// NewBeanRef builds a ref for t.
func NewBeanRef(t reflect.Type, qualifiers ...Qualifier) BeanRef {
	return BeanRef{typ: t, qualifiers: canonical(qualifiers)}
}

// RefOf builds a ref for the static type T.
func RefOf[T any](qualifiers ...Qualifier) BeanRef {
	return NewBeanRef(reflect.TypeFor[T](), qualifiers...)
}

// Type returns the referenced type.
func (r BeanRef) Type() reflect.Type { return r.typ }

// Qualifiers returns the qualifier set in canonical (sorted) order.
func (r BeanRef) Qualifiers() []Qualifier {
	if r.qualifiers == "" {
		return nil
	}
	parts := strings.Split(r.qualifiers, qualifierSep)
	out := make([]Qualifier, len(parts))
	for i, p := range parts {
		out[i] = Qualifier(p)
	}
	return out
}

// IsZero reports whether r was never initialised.
func (r BeanRef) IsZero() bool { return r.typ == nil }

// String renders the ref as pkg.Type or pkg.Type[@Q1 @Q2].
func (r BeanRef) String() string {
	name := "<nil>"
	if r.typ != nil {
		name = r.typ.String()
	}
	if r.qualifiers == "" {
		return name
	}
	return name + "[" + strings.ReplaceAll(r.qualifiers, qualifierSep, " ") + "]"
}

func canonical(qualifiers []Qualifier) string {
	if len(qualifiers) == 0 {
		return ""
	}
	set := make([]string, 0, len(qualifiers))
	for _, q := range qualifiers {
		if q != "" {
			set = append(set, string(q))
		}
	}
	slices.Sort(set)
	set = slices.Compact(set)
	return strings.Join(set, qualifierSep)
}
