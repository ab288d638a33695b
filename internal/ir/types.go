package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Type is a sealed interface over the first-order IR types.
// Only the T* types in this package implement it.
type Type interface {
	irType()
	String() string
}

// TNull is the type of the null value.
type TNull struct{}

// TBool is the boolean type.
type TBool struct{}

// TUInt256 is the ledger-native unsigned integer type.
type TUInt256 struct{}

// TBytes is the byte-string type.
type TBytes struct{}

// TAddress is the on-ledger account address type.
type TAddress struct{}

// TArray is a fixed-size homogeneous array type.
type TArray struct {
	Elem Type
	Size int
}

// TTuple is a fixed-length heterogeneous tuple type.
type TTuple struct {
	Elems []Type
}

// TObject is a record type with named fields.
type TObject struct {
	Fields map[string]Type
}

// TFun is a first-order function type.
type TFun struct {
	Dom []Type
	Rng Type
}

// TVar is a type variable, used by universally quantified built-ins.
type TVar struct {
	Name string
}

// TForall is a universally quantified type.
type TForall struct {
	Vars []string
	Body Type
}

func (TNull) irType()    {}
func (TBool) irType()    {}
func (TUInt256) irType() {}
func (TBytes) irType()   {}
func (TAddress) irType() {}
func (TArray) irType()   {}
func (TTuple) irType()   {}
func (TObject) irType()  {}
func (TFun) irType()     {}
func (TVar) irType()     {}
func (TForall) irType()  {}

func (TNull) String() string    { return "null" }
func (TBool) String() string    { return "bool" }
func (TUInt256) String() string { return "uint256" }
func (TBytes) String() string   { return "bytes" }
func (TAddress) String() string { return "address" }

func (t TArray) String() string {
	return fmt.Sprintf("array(%s, %d)", t.Elem, t.Size)
}

func (t TTuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "tuple(" + strings.Join(parts, ", ") + ")"
}

func (t TObject) String() string {
	keys := make([]string, 0, len(t.Fields))
	for k := range t.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + t.Fields[k].String()
	}
	return "object({" + strings.Join(parts, ", ") + "})"
}

func (t TFun) String() string {
	parts := make([]string, len(t.Dom))
	for i, d := range t.Dom {
		parts[i] = d.String()
	}
	return "fun([" + strings.Join(parts, ", ") + "], " + t.Rng.String() + ")"
}

func (t TVar) String() string { return t.Name }

func (t TForall) String() string {
	return "forall(" + strings.Join(t.Vars, ", ") + ", " + t.Body.String() + ")"
}

// TypeEqual reports structural equality of two types. Compound types must
// match exactly in size and shape.
func TypeEqual(a, b Type) bool {
	switch x := a.(type) {
	case TNull:
		_, ok := b.(TNull)
		return ok
	case TBool:
		_, ok := b.(TBool)
		return ok
	case TUInt256:
		_, ok := b.(TUInt256)
		return ok
	case TBytes:
		_, ok := b.(TBytes)
		return ok
	case TAddress:
		_, ok := b.(TAddress)
		return ok
	case TArray:
		y, ok := b.(TArray)
		return ok && x.Size == y.Size && TypeEqual(x.Elem, y.Elem)
	case TTuple:
		y, ok := b.(TTuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !TypeEqual(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case TObject:
		y, ok := b.(TObject)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, xt := range x.Fields {
			yt, ok := y.Fields[k]
			if !ok || !TypeEqual(xt, yt) {
				return false
			}
		}
		return true
	case TFun:
		y, ok := b.(TFun)
		if !ok || len(x.Dom) != len(y.Dom) {
			return false
		}
		for i := range x.Dom {
			if !TypeEqual(x.Dom[i], y.Dom[i]) {
				return false
			}
		}
		return TypeEqual(x.Rng, y.Rng)
	case TVar:
		y, ok := b.(TVar)
		return ok && x.Name == y.Name
	case TForall:
		y, ok := b.(TForall)
		if !ok || len(x.Vars) != len(y.Vars) {
			return false
		}
		for i := range x.Vars {
			if x.Vars[i] != y.Vars[i] {
				return false
			}
		}
		return TypeEqual(x.Body, y.Body)
	default:
		return false
	}
}
