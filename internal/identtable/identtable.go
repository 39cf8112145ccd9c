// Package identtable implements Component B of spec.md §2/§4.B: the
// identifier table that tracks variable, procedure and function
// entries across nested lexical scopes.
//
// Per spec.md §9, name resolution here is a flat linear scan over the
// full, insertion-ordered registry — not a lexical-scope walk. This
// reproduces the original compiler's observable behavior (duplicate
// names across nested scopes silently shadow by declaration order)
// rather than the stricter scoping a clean-slate design might prefer.
package identtable

import "errors"

// ValueType is one of NNP's two scalar types.
type ValueType int

const (
	INTEGER ValueType = iota
	BOOLEAN
)

func (t ValueType) String() string {
	switch t {
	case INTEGER:
		return "integer"
	case BOOLEAN:
		return "boolean"
	default:
		return "unknown"
	}
}

// CallableKind distinguishes a procedure from a function.
type CallableKind int

const (
	ProcedureKind CallableKind = iota
	FunctionKind
)

// ErrDuplicateName is returned by AddVariable when scope already holds a
// variable of the same name (spec.md §3 invariant).
var ErrDuplicateName = errors.New("duplicate variable name in scope")

// Entry is the common interface of VariableEntry and CallableEntry, so
// Table can keep one flat, insertion-ordered registry of both.
type Entry interface {
	EntryName() string
}

// VariableEntry describes a single local variable or parameter.
type VariableEntry struct {
	Name      string
	Scope     *CallableEntry // the callable this variable belongs to
	Type      ValueType
	InStatus  bool // true if this variable is a formal parameter
	OutStatus bool // true if this parameter is in-out (passed by reference)
	Address   int  // offset within the enclosing activation record
}

// EntryName implements Entry.
func (v *VariableEntry) EntryName() string { return v.Name }

// CallableEntry describes a procedure or function declaration.
type CallableEntry struct {
	Name       string
	Kind       CallableKind
	Scope      *CallableEntry // lexically enclosing callable, nil at program level
	Address    int            // address of the callable's first prologue instruction
	ReturnType ValueType      // meaningful only when Kind == FunctionKind
	Variables  []*VariableEntry
	Parameters []*VariableEntry // ordered prefix of Variables that are parameters
}

// EntryName implements Entry.
func (c *CallableEntry) EntryName() string { return c.Name }

// IsFunction reports whether c is a function (vs. a procedure).
func (c *CallableEntry) IsFunction() bool { return c.Kind == FunctionKind }

// Table is the compiler's identifier table: a single flat registry plus
// per-callable membership lists.
type Table struct {
	entries []Entry
}

// New constructs an empty Table.
func New() *Table {
	return &Table{}
}

// AddVariable appends a new VariableEntry to the registry and to
// scope's variable (and, if isIn, parameter) list. It fails with
// ErrDuplicateName if scope already declares a variable of this name.
func (t *Table) AddVariable(name string, typ ValueType, scope *CallableEntry, isIn, isOut bool, address int) (*VariableEntry, error) {
	if scope != nil {
		for _, v := range scope.Variables {
			if v.Name == name {
				return nil, ErrDuplicateName
			}
		}
	}

	v := &VariableEntry{
		Name:      name,
		Scope:     scope,
		Type:      typ,
		InStatus:  isIn,
		OutStatus: outStatusOf(isIn, isOut),
		Address:   address,
	}

	t.entries = append(t.entries, v)
	if scope != nil {
		scope.Variables = append(scope.Variables, v)
		if isIn {
			scope.Parameters = append(scope.Parameters, v)
		}
	}
	return v, nil
}

// outStatusOf normalizes outStatus: a variable cannot be "out" without
// also being "in" (there is no out-only mode in NNP's grammar).
func outStatusOf(isIn, isOut bool) bool {
	return isIn && isOut
}

// AddCallable creates and registers a new CallableEntry of the given
// kind, lexically enclosed by scope (nil for the top-level program
// procedure).
func (t *Table) AddCallable(name string, kind CallableKind, scope *CallableEntry, address int) *CallableEntry {
	c := &CallableEntry{Name: name, Kind: kind, Scope: scope, Address: address}
	t.entries = append(t.entries, c)
	return c
}

// GetByName performs the flat, first-match linear scan described in
// spec.md §4.B/§9: it returns the first entry (variable or callable)
// with the given name across the entire registry, in insertion order.
func (t *Table) GetByName(name string) (Entry, bool) {
	for _, e := range t.entries {
		if e.EntryName() == name {
			return e, true
		}
	}
	return nil, false
}

// Entries returns the full insertion-ordered registry, mainly for
// --show-ident-table diagnostics in cmd/nnp-comp.
func (t *Table) Entries() []Entry {
	return t.entries
}
