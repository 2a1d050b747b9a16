// Package typecheck implements the Type Checker (spec.md §4.3): one
// traversal of the assembled, type-environment-populated instruction
// list, verifying every opcode's operand/result type contract and
// inferring the function's return type along the way.
package typecheck

import (
	"ridgec/internal/ir"
	"ridgec/internal/opcode"
	"ridgec/internal/rerr"
)

type checker struct {
	prog       *ir.Program
	returnType int
	sawReturn  bool
}

// Check verifies prog and returns the inferred return type-id. It
// does not mutate prog; the caller (assemble.Assemble) stores the
// result on the Program before treating it as immutable.
func Check(prog *ir.Program) (int, error) {
	c := &checker{prog: prog}
	for _, instr := range prog.Instructions {
		if err := c.checkInstruction(instr); err != nil {
			return 0, err
		}
	}
	return c.returnType, nil
}

func (c *checker) typeOf(reg int) int {
	return c.prog.RegisterTypes[reg]
}

func (c *checker) primOf(reg int) opcode.Prim {
	return c.prog.TypeDefs[c.typeOf(reg)].Prim
}

func typeErr(format string, args ...interface{}) *rerr.InvalidInput {
	return rerr.New(rerr.Type, format, args...)
}

func (c *checker) requireEqual(a, b int, instr ir.Instruction, what string) error {
	if c.typeOf(a) != c.typeOf(b) {
		return typeErr("%s: type mismatch between registers %d (type %d) and %d (type %d)",
			what, a, c.typeOf(a), b, c.typeOf(b)).WithPosition(instr.Line, instr.Column)
	}
	return nil
}

func (c *checker) requireInteger(reg int, instr ir.Instruction, what string) error {
	if !c.primOf(reg).IsInteger() {
		return typeErr("%s: register %d has non-integer primitive %s", what, reg, c.primOf(reg)).WithPosition(instr.Line, instr.Column)
	}
	return nil
}

func (c *checker) requirePrim(reg int, want opcode.Prim, instr ir.Instruction, what string) error {
	if c.primOf(reg) != want {
		return typeErr("%s: register %d must be %s, has %s", what, reg, want, c.primOf(reg)).WithPosition(instr.Line, instr.Column)
	}
	return nil
}

func (c *checker) checkInstruction(instr ir.Instruction) error {
	switch instr.Op {
	case opcode.Move:
		return c.requireEqual(instr.A, instr.B, instr, "move")

	case opcode.Cast:
		return nil // reinterpret: no constraint

	case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div:
		if err := c.requireEqual(instr.B, instr.C, instr, instr.Op.String()); err != nil {
			return err
		}
		return c.requireEqual(instr.A, instr.B, instr, instr.Op.String())

	case opcode.Band, opcode.Bor, opcode.Bxor, opcode.Shl, opcode.Shr:
		if err := c.requireInteger(instr.B, instr, instr.Op.String()); err != nil {
			return err
		}
		if err := c.requireEqual(instr.B, instr.C, instr, instr.Op.String()); err != nil {
			return err
		}
		return c.requireEqual(instr.A, instr.B, instr, instr.Op.String())

	case opcode.Bnot:
		if err := c.requireInteger(instr.B, instr, "bnot"); err != nil {
			return err
		}
		return c.requireEqual(instr.A, instr.B, instr, "bnot")

	case opcode.Load:
		return c.requirePrim(instr.B, opcode.Pointer, instr, "load")

	case opcode.Store:
		return c.requirePrim(instr.A, opcode.Pointer, instr, "store")

	case opcode.Gt, opcode.Lt, opcode.Eq, opcode.Neq, opcode.Gte, opcode.Lte:
		// Source-verbatim ordering (see spec.md §9): equality between
		// dest and lhs is checked before dest is checked for boolean,
		// which in effect demands lhs/rhs/dest all share the boolean
		// type. Implemented as specified, not "fixed".
		if err := c.requireEqual(instr.B, instr.C, instr, instr.Op.String()); err != nil {
			return err
		}
		if err := c.requireEqual(instr.A, instr.B, instr, instr.Op.String()); err != nil {
			return err
		}
		return c.requirePrim(instr.A, opcode.Boolean, instr, instr.Op.String())

	case opcode.Address:
		return c.requirePrim(instr.A, opcode.Pointer, instr, "address")

	case opcode.Branch:
		return c.requirePrim(instr.A, opcode.Boolean, instr, "branch")

	case opcode.Return:
		if !c.sawReturn {
			c.returnType = c.typeOf(instr.A)
			c.sawReturn = true
			return nil
		}
		if c.typeOf(instr.A) != c.returnType {
			return typeErr("return: conflicting return types %d and %d", c.returnType, c.typeOf(instr.A)).WithPosition(instr.Line, instr.Column)
		}
		return nil

	case opcode.Call:
		return c.requirePrim(instr.B, opcode.Pointer, instr, "call")

	case opcode.Fget:
		dest, structReg, field := instr.A, instr.B, instr.C
		return c.checkFieldAccess(structReg, field, dest, instr, "fget")

	case opcode.Fset:
		structReg, field, src := instr.A, instr.B, instr.C
		return c.checkFieldAccess(structReg, field, src, instr, "fset")

	case opcode.Jump, opcode.Arg, opcode.Prim, opcode.Struct, opcode.Bind, opcode.Constant, opcode.Callk:
		return nil // no type check for these, per spec.md §4.3

	default:
		return nil
	}
}

func (c *checker) checkFieldAccess(structReg, field, other int, instr ir.Instruction, what string) error {
	if err := c.requirePrim(structReg, opcode.StructKind, instr, what); err != nil {
		return err
	}
	def := c.prog.TypeDefs[c.typeOf(structReg)]
	if field < 0 || field >= def.FieldCount {
		return typeErr("%s: field index %d out of range [0,%d)", what, field, def.FieldCount).WithPosition(instr.Line, instr.Column)
	}
	fieldType := c.prog.Fields[def.FieldStart+field].Type
	if fieldType != c.typeOf(other) {
		return typeErr("%s: field type %d does not match register %d's type %d", what, fieldType, other, c.typeOf(other)).WithPosition(instr.Line, instr.Column)
	}
	return nil
}
