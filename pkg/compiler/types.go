package compiler

import "fmt"

// Kind is the category of a Type.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindString
	KindAddress
	KindEnum
	KindStruct
	KindInPort
	KindOutPort
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindInt:     "int",
	KindString:  "string",
	KindAddress: "Address",
	KindEnum:    "enumeration",
	KindStruct:  "structure",
	KindInPort:  "in_port",
	KindOutPort: "out_port",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// AddressTypeName is the designated address type: the only legal operand of
// wake-up and trigger.
const AddressTypeName = "Address"

// Enumerator is one member of an enumeration type.
type Enumerator struct {
	Name string
	Desc string
	Pos  Pos
}

// Field is one member of a structure type.
type Field struct {
	Name string
	Type *Type
	Pos  Pos
}

// Type is a resolved type. Enumerations compare nominally (by identity),
// structures structurally (field names and field types, in order).
type Type struct {
	Name    string
	Kind    Kind
	Machine string // owning machine; empty for globals and built-ins
	Desc    string
	Pos     Pos

	Enumerators []Enumerator
	Fields      []Field
	Msg         *Type // message type carried by a port
}

// Predeclared types.
var (
	TypeVoid    = &Type{Name: "void", Kind: KindVoid}
	TypeBool    = &Type{Name: "bool", Kind: KindBool}
	TypeInt     = &Type{Name: "int", Kind: KindInt}
	TypeString  = &Type{Name: "string", Kind: KindString}
	TypeAddress = &Type{Name: AddressTypeName, Kind: KindAddress}
)

var predeclared = []*Type{TypeBool, TypeInt, TypeString, TypeAddress}

func (t *Type) String() string {
	if t == nil {
		return "<untyped>"
	}
	switch t.Kind {
	case KindInPort, KindOutPort:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Msg)
	}
	if t.Machine != "" {
		return t.Machine + ":" + t.Name
	}
	return t.Name
}

// EnumIndex returns the ordinal of an enumerator.
func (t *Type) EnumIndex(name string) (int, bool) {
	for i, e := range t.Enumerators {
		if e.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Field returns the named field of a structure.
func (t *Type) Field(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// Comparable reports whether == and != are defined on values of t.
func (t *Type) Comparable() bool {
	switch t.Kind {
	case KindBool, KindInt, KindString, KindAddress, KindEnum:
		return true
	}
	return false
}

// Identical reports whether a value of type b may be used where a is
// expected without any conversion the programmer did not ask for.
func Identical(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindStruct:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Identical(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindInPort, KindOutPort:
		return Identical(a.Msg, b.Msg)
	}
	// Built-ins are singletons; enumerations are nominal.
	return false
}

// Builtin is a predeclared function.
type Builtin struct {
	Name   string
	Params []*Type
	Result *Type
}

var builtins = []*Builtin{
	{Name: "error", Params: []*Type{TypeString}, Result: TypeVoid},
	{Name: "assert", Params: []*Type{TypeBool}, Result: TypeVoid},
	{Name: "makeLineAddress", Params: []*Type{TypeAddress}, Result: TypeAddress},
	{Name: "curCycle", Result: TypeInt},
}

// portMethods lists the methods callable on an in_port.
var portMethods = map[string]*Builtin{
	"isReady": {Name: "isReady", Result: TypeBool},
}
