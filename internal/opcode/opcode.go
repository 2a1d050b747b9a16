// Package opcode holds the static name<->enum tables for the IR's
// opcodes and primitive type kinds: the "leaves" of the pipeline,
// consulted by the assembler (by binary search against a sorted name
// table, per spec) and by the backend (to print C operators and types).
package opcode

import "sort"

// Op is an IR instruction tag.
type Op uint8

const (
	// Arithmetic ternary
	Add Op = iota
	Sub
	Mul
	Div
	Band
	Bor
	Bxor
	Shl
	Shr

	// Unary
	Bnot
	Move
	Cast
	Address
	Load
	Store

	// Comparisons (result is boolean)
	Gt
	Lt
	Eq
	Neq
	Gte
	Lte

	// Control
	Jump
	Branch
	Return

	// Calls
	Call
	Callk // internally synthesized, never appears as an input head

	// Arguments carrier
	Arg

	// Type
	Prim
	Struct
	Bind

	// Field access
	Fget
	Fset

	// Constant load
	Constant
)

var opNames = [...]string{
	Add:      "add",
	Sub:      "sub",
	Mul:      "mul",
	Div:      "div",
	Band:     "band",
	Bor:      "bor",
	Bxor:     "bxor",
	Shl:      "shl",
	Shr:      "shr",
	Bnot:     "bnot",
	Move:     "move",
	Cast:     "cast",
	Address:  "address",
	Load:     "load",
	Store:    "store",
	Gt:       "gt",
	Lt:       "lt",
	Eq:       "eq",
	Neq:      "neq",
	Gte:      "gte",
	Lte:      "lte",
	Jump:     "jump",
	Branch:   "branch",
	Return:   "return",
	Call:     "call",
	Callk:    "callk",
	Arg:      "arg",
	Prim:     "prim",
	Struct:   "struct",
	Bind:     "bind",
	Fget:     "fget",
	Fset:     "fset",
	Constant: "constant",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "unknown"
}

type nameEntry struct {
	name string
	op   Op
}

// opTable is the sorted (by name) opcode table the assembler binary
// searches. Callk is deliberately excluded: it is never a valid input
// head, only a rewrite target.
var opTable []nameEntry

func init() {
	opTable = make([]nameEntry, 0, len(opNames))
	for op, name := range opNames {
		if Op(op) == Callk {
			continue
		}
		opTable = append(opTable, nameEntry{name: name, op: Op(op)})
	}
	sort.Slice(opTable, func(i, j int) bool { return opTable[i].name < opTable[j].name })
}

// Lookup performs the binary search against the sorted opcode-name
// table spec.md §4.1 calls for.
func Lookup(name string) (Op, bool) {
	i := sort.Search(len(opTable), func(i int) bool { return opTable[i].name >= name })
	if i < len(opTable) && opTable[i].name == name {
		return opTable[i].op, true
	}
	return 0, false
}

// Shape describes an opcode's fixed operand arity, used by the
// assembler for length checks (spec.md §4.1 "Length checks").
type Shape int

const (
	ShapeTriple  Shape = iota // dest, lhs, rhs
	ShapePair                 // dest, src
	ShapeSingle               // src
	ShapeJump                 // target
	ShapeBranch               // cond, target
	ShapeConst                // dest, constant
	ShapeCall                 // dest, callee, arg_count (+ variadic args)
	ShapeTypePrim             // dest_type, primkind
	ShapeTypeList             // dest_type, count (+ variadic field type ids)
	ShapeBind                 // register, type_id
	ShapeField                // dest/struct, struct/field, field/src
	ShapeArgCarrier           // up to three packed ids
)

// Shapes maps every input-visible opcode to its operand shape and
// fixed operand count (the count excludes any trailing variadic
// operands packed into arg carriers).
var Shapes = map[Op]struct {
	Shape Shape
	Fixed int
}{
	Add:      {ShapeTriple, 3},
	Sub:      {ShapeTriple, 3},
	Mul:      {ShapeTriple, 3},
	Div:      {ShapeTriple, 3},
	Band:     {ShapeTriple, 3},
	Bor:      {ShapeTriple, 3},
	Bxor:     {ShapeTriple, 3},
	Shl:      {ShapeTriple, 3},
	Shr:      {ShapeTriple, 3},
	Gt:       {ShapeTriple, 3},
	Lt:       {ShapeTriple, 3},
	Eq:       {ShapeTriple, 3},
	Neq:      {ShapeTriple, 3},
	Gte:      {ShapeTriple, 3},
	Lte:      {ShapeTriple, 3},
	Bnot:     {ShapePair, 2},
	Move:     {ShapePair, 2},
	Cast:     {ShapePair, 2},
	Address:  {ShapePair, 2},
	Load:     {ShapePair, 2},
	Store:    {ShapePair, 2},
	Return:   {ShapeSingle, 1},
	Jump:     {ShapeJump, 1},
	Branch:   {ShapeBranch, 2},
	Constant: {ShapeConst, 2},
	Call:     {ShapeCall, 3}, // dest, callee, arg_count; arg_count more follow as arg carriers
	Callk:    {ShapeCall, 3},
	Prim:     {ShapeTypePrim, 2},
	Struct:   {ShapeTypeList, 2}, // dest_type, n; n field ids follow as arg carriers
	Bind:     {ShapeBind, 2},
	Fget:     {ShapeField, 3},
	Fset:     {ShapeField, 3},
	Arg:      {ShapeArgCarrier, 0},
}

// Prim is a primitive type kind, or the struct tag marking an aggregate.
type Prim uint8

const (
	U8 Prim = iota
	U16
	U32
	U64
	S8
	S16
	S32
	S64
	F32
	F64
	Pointer
	Boolean
	StructKind
)

var primNames = [...]string{
	U8:         "u8",
	U16:        "u16",
	U32:        "u32",
	U64:        "u64",
	S8:         "s8",
	S16:        "s16",
	S32:        "s32",
	S64:        "s64",
	F32:        "f32",
	F64:        "f64",
	Pointer:    "pointer",
	Boolean:    "boolean",
	StructKind: "struct",
}

func (p Prim) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return "unknown"
}

// IsInteger reports whether p is one of the eight integer primitives.
func (p Prim) IsInteger() bool {
	switch p {
	case U8, U16, U32, U64, S8, S16, S32, S64:
		return true
	default:
		return false
	}
}

type primEntry struct {
	name string
	prim Prim
}

var primTable []primEntry

func init() {
	primTable = make([]primEntry, 0, len(primNames))
	for p, name := range primNames {
		primTable = append(primTable, primEntry{name: name, prim: Prim(p)})
	}
	sort.Slice(primTable, func(i, j int) bool { return primTable[i].name < primTable[j].name })
}

// LookupPrim binary-searches the sorted primitive-name table.
func LookupPrim(name string) (Prim, bool) {
	i := sort.Search(len(primTable), func(i int) bool { return primTable[i].name >= name })
	if i < len(primTable) && primTable[i].name == name {
		return primTable[i].prim, true
	}
	return 0, false
}
