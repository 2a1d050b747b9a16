// Package typeenv implements the Type Environment Builder (spec.md
// §4.2): a single linear pass over the assembled instructions that
// materializes the type-def array, the flat field table, and the
// register-type map. It runs after assemble's parse pass (which
// already discovered RegisterCount and the type-def count) and
// before typecheck.
package typeenv

import (
	"ridgec/internal/ir"
	"ridgec/internal/opcode"
	"ridgec/internal/rerr"
)

// Build materializes prog.TypeDefs, prog.Fields, and
// prog.RegisterTypes in place. typeDefCount is the count assemble's
// parse pass discovered (type-id 0 always included for the s32
// default).
func Build(prog *ir.Program, typeDefCount int) error {
	typeDefs := make([]ir.TypeDef, typeDefCount)
	typeDefs[0] = ir.TypeDef{Prim: opcode.S32}

	fields := make([]ir.Field, 0)
	registerTypes := make([]int, prog.RegisterCount)

	for i := 0; i < len(prog.Instructions); i++ {
		instr := prog.Instructions[i]
		switch instr.Op {
		case opcode.Prim:
			destType, kind := instr.A, opcode.Prim(instr.B)
			if destType < 0 || destType >= len(typeDefs) {
				return rerr.New(rerr.Shape, "prim type-id %d out of range", destType).WithPosition(instr.Line, instr.Column)
			}
			typeDefs[destType] = ir.TypeDef{Prim: kind}

		case opcode.Struct:
			destType, n := instr.A, instr.B
			if destType < 0 || destType >= len(typeDefs) {
				return rerr.New(rerr.Shape, "struct type-id %d out of range", destType).WithPosition(instr.Line, instr.Column)
			}
			start := len(fields)
			carriers := (n + 2) / 3
			if i+carriers >= len(prog.Instructions) && n > 0 {
				return rerr.New(rerr.Structure, "struct at instruction %d is missing its field-id carriers", i).WithPosition(instr.Line, instr.Column)
			}
			for c := 0; c < carriers; c++ {
				carrier := prog.Instructions[i+1+c]
				for k := 0; k < 3; k++ {
					logical := c*3 + k
					if logical >= n {
						break
					}
					fields = append(fields, ir.Field{Type: carrier.Arg[k]})
				}
			}
			typeDefs[destType] = ir.TypeDef{Prim: opcode.StructKind, FieldStart: start, FieldCount: n}

		case opcode.Bind:
			register, typeID := instr.A, instr.B
			if register < 0 || register >= len(registerTypes) {
				return rerr.New(rerr.Shape, "bind register %d out of range", register).WithPosition(instr.Line, instr.Column)
			}
			registerTypes[register] = typeID
		}
	}

	prog.TypeDefs = typeDefs
	prog.Fields = fields
	prog.RegisterTypes = registerTypes
	return nil
}
