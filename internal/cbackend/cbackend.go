// Package cbackend implements the C Emitter (spec.md §4.4): given a
// verified *ir.Program it appends a self-contained C translation unit
// to a byte buffer. It performs no type checking — every invariant it
// relies on was already established by typecheck.Check, so EmitC is
// total on a Program that came out of assemble.Assemble.
package cbackend

import (
	"bytes"
	"fmt"
	"strconv"

	"ridgec/internal/ir"
	"ridgec/internal/opcode"
)

// Options carries the small set of emitter knobs cmd/ridgec exposes.
// BuildID, when non-empty, is stamped as an inert comment right after
// the prelude so build artifacts can be correlated with a build run.
type Options struct {
	BuildID string
}

var cTypeNames = [...]string{
	opcode.U8:         "uint8_t",
	opcode.U16:        "uint16_t",
	opcode.U32:        "uint32_t",
	opcode.U64:        "uint64_t",
	opcode.S8:         "int8_t",
	opcode.S16:        "int16_t",
	opcode.S32:        "int32_t",
	opcode.S64:        "int64_t",
	opcode.F32:        "float",
	opcode.F64:        "double",
	opcode.Pointer:    "char *",
	opcode.Boolean:    "bool",
	opcode.StructKind: "", // structs are never addressed by cprim directly
}

func cprim(p opcode.Prim) string {
	if int(p) < len(cTypeNames) {
		return cTypeNames[p]
	}
	return "void"
}

var cOperator = map[opcode.Op]string{
	opcode.Add:  "+",
	opcode.Sub:  "-",
	opcode.Mul:  "*",
	opcode.Div:  "/",
	opcode.Band: "&",
	opcode.Bor:  "|",
	opcode.Bxor: "^",
	opcode.Shl:  "<<",
	opcode.Shr:  ">>",
	opcode.Gt:   ">",
	opcode.Lt:   "<",
	opcode.Eq:   "==",
	opcode.Neq:  "!=",
	opcode.Gte:  ">=", // spec.md §9 records the source emitting ">" here as a bug; faithful-fix chosen, see DESIGN.md
	opcode.Lte:  "<=",
}

// EmitC appends the emitted C translation unit to buf. Never fails on
// a Program produced by assemble.Assemble.
func EmitC(prog *ir.Program, buf *bytes.Buffer, opts Options) {
	fmt.Fprintln(buf, "#include <stdint.h>")
	fmt.Fprintln(buf, "#include <tgmath.h>")
	if opts.BuildID != "" {
		fmt.Fprintf(buf, "// build %s\n", opts.BuildID)
	}

	emitTypedefs(prog, buf)
	emitSignatureOpen(prog, buf)
	emitRegisterDecls(prog, buf)
	emitBody(prog, buf)

	fmt.Fprintln(buf, "}")
}

func emitTypedefs(prog *ir.Program, buf *bytes.Buffer) {
	for _, instr := range prog.Instructions {
		switch instr.Op {
		case opcode.Prim:
			maybeLine(buf, instr.Line)
			fmt.Fprintf(buf, "typedef %s _t%d;\n", cprim(opcode.Prim(instr.B)), instr.A)
		case opcode.Struct:
			maybeLine(buf, instr.Line)
			td := prog.TypeDefs[instr.A]
			fmt.Fprintf(buf, "typedef struct {")
			for j := 0; j < td.FieldCount; j++ {
				fieldType := prog.Fields[td.FieldStart+j].Type
				fmt.Fprintf(buf, " _t%d _f%d;", fieldType, j)
			}
			fmt.Fprintf(buf, " } _t%d;\n", instr.A)
		}
	}
}

func emitSignatureOpen(prog *ir.Program, buf *bytes.Buffer) {
	fmt.Fprintf(buf, "_t%d %s(", prog.ReturnType, prog.LinkName)
	for i := 0; i < prog.ParameterCount; i++ {
		if i > 0 {
			fmt.Fprint(buf, ", ")
		}
		fmt.Fprintf(buf, "_t%d _r%d", prog.RegisterTypes[i], i)
	}
	fmt.Fprintln(buf, ") {")
}

func emitRegisterDecls(prog *ir.Program, buf *bytes.Buffer) {
	for i := prog.ParameterCount; i < prog.RegisterCount; i++ {
		fmt.Fprintf(buf, "_t%d _r%d;\n", prog.RegisterTypes[i], i)
	}
}

// emitBody walks the instruction array in order, emitting one label
// plus one statement per "real" instruction. Type-environment-only
// instructions (prim, struct, bind) and arg carriers produce no C
// statement at all, so they receive no label either: a label with
// nothing following it is not valid C.
func emitBody(prog *ir.Program, buf *bytes.Buffer) {
	for i, instr := range prog.Instructions {
		switch instr.Op {
		case opcode.Prim, opcode.Struct, opcode.Bind, opcode.Arg:
			continue
		}
		fmt.Fprintf(buf, "_i%d:\n", i)
		maybeLine(buf, instr.Line)
		emitStatement(prog, buf, i, instr)
	}
}

func maybeLine(buf *bytes.Buffer, line int) {
	if line > 0 {
		fmt.Fprintf(buf, "#line %d\n", line)
	}
}

func emitStatement(prog *ir.Program, buf *bytes.Buffer, i int, instr ir.Instruction) {
	switch instr.Op {
	case opcode.Constant:
		fmt.Fprintf(buf, "_r%d = (_t%d) %s;\n", instr.A, prog.RegisterTypes[instr.A], printConstant(prog.Constants[instr.B]))

	case opcode.Address:
		fmt.Fprintf(buf, "_r%d = (char *) &_r%d;\n", instr.A, instr.B)

	case opcode.Jump:
		fmt.Fprintf(buf, "goto _i%d;\n", instr.A)

	case opcode.Branch:
		fmt.Fprintf(buf, "if (_r%d) goto _i%d;\n", instr.A, instr.B)

	case opcode.Return:
		fmt.Fprintf(buf, "return _r%d;\n", instr.A)

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div, opcode.Band, opcode.Bor, opcode.Bxor,
		opcode.Shl, opcode.Shr, opcode.Gt, opcode.Lt, opcode.Eq, opcode.Neq, opcode.Gte, opcode.Lte:
		fmt.Fprintf(buf, "_r%d = _r%d %s _r%d;\n", instr.A, instr.B, cOperator[instr.Op], instr.C)

	case opcode.Call:
		fmt.Fprintf(buf, "_r%d = _r%d(%s);\n", instr.A, instr.B, joinArgs(prog, i, instr.C))

	case opcode.Callk:
		fmt.Fprintf(buf, "_r%d = %s(%s);\n", instr.A, printConstant(prog.Constants[instr.B]), joinArgs(prog, i, instr.C))

	case opcode.Cast:
		fmt.Fprintf(buf, "_r%d = (_t%d) _r%d;\n", instr.A, prog.RegisterTypes[instr.A], instr.B)

	case opcode.Move:
		fmt.Fprintf(buf, "_r%d = _r%d;\n", instr.A, instr.B)

	case opcode.Bnot:
		fmt.Fprintf(buf, "_r%d = ~_r%d;\n", instr.A, instr.B)

	case opcode.Load:
		fmt.Fprintf(buf, "_r%d = *((%s *) _r%d);\n", instr.A, cprim(prog.TypeDefs[prog.RegisterTypes[instr.A]].Prim), instr.B)

	case opcode.Store:
		fmt.Fprintf(buf, "*((%s *) _r%d) = _r%d;\n", cprim(prog.TypeDefs[prog.RegisterTypes[instr.B]].Prim), instr.A, instr.B)

	case opcode.Fget:
		fmt.Fprintf(buf, "_r%d = _r%d._f%d;\n", instr.A, instr.B, instr.C)

	case opcode.Fset:
		fmt.Fprintf(buf, "_r%d._f%d = _r%d;\n", instr.A, instr.B, instr.C)
	}
}

// joinArgs reconstructs the k-th logical call argument as
// instructions[header+1+k/3].Arg[k%3], per spec.md §4.1's packing
// convention, and renders them as a comma-joined "_rN" list.
func joinArgs(prog *ir.Program, headerIndex, argCount int) string {
	var sb bytes.Buffer
	for k := 0; k < argCount; k++ {
		if k > 0 {
			sb.WriteString(", ")
		}
		carrier := prog.Instructions[headerIndex+1+k/3]
		fmt.Fprintf(&sb, "_r%d", carrier.Arg[k%3])
	}
	return sb.String()
}

func printConstant(v interface{}) string {
	switch value := v.(type) {
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		if value {
			return "1"
		}
		return "0"
	case string:
		return value // call-target symbols print as bare C identifiers
	default:
		return fmt.Sprintf("%v", value)
	}
}
