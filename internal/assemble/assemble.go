// Package assemble implements the Assembler (spec.md §4.1): it is the
// ingress API (spec.md §6, "assemble") that turns a host-supplied
// record.Program into a verified, immutable *ir.Program by running
// the parse pass, then the type-env builder, then the type checker,
// in that fixed order, and failing fast with a *rerr.InvalidInput at
// the first problem any of the three stages finds.
package assemble

import (
	"ridgec/internal/ir"
	"ridgec/internal/opcode"
	"ridgec/internal/record"
	"ridgec/internal/rerr"
	"ridgec/internal/typecheck"
	"ridgec/internal/typeenv"
)

// parseResult is the assembler's own output: instructions plus the
// counts and constant pool it discovered. Type-defs, fields, and
// register types are not populated yet — that is typeenv's job.
type parseResult struct {
	instructions  []ir.Instruction
	registerCount int
	typeDefCount  int
	constants     []interface{}
}

// Assemble is the single exported entry point: parse, build the type
// environment, type-check, and return the fully immutable Program.
func Assemble(input record.Program) (*ir.Program, error) {
	parsed, err := parse(input)
	if err != nil {
		return nil, err
	}

	prog := &ir.Program{
		LinkName:       input.LinkName,
		ParameterCount: input.ParameterCount,
		Instructions:   parsed.instructions,
		RegisterCount:  parsed.registerCount,
		Constants:      parsed.constants,
	}

	if err := typeenv.Build(prog, parsed.typeDefCount); err != nil {
		return nil, err
	}

	returnType, err := typecheck.Check(prog)
	if err != nil {
		return nil, err
	}
	prog.ReturnType = returnType

	return prog, nil
}

type asmState struct {
	input         record.Program
	instructions  []ir.Instruction
	registerCount int
	typeDefCount  int // type-id 0 is pre-reserved for s32
	constants     []interface{}
	constIndex    map[interface{}]int
	labels        map[string]int // reserved hook; never populated today
}

func parse(input record.Program) (*parseResult, error) {
	st := &asmState{
		input:        input,
		typeDefCount: 1, // type-id 0 reserved for the default s32
		constIndex:   make(map[interface{}]int),
		labels:       make(map[string]int),
	}

	i := 0
	for i < len(input.Instructions) {
		rec := input.Instructions[i]
		if rec.Keyword != "" {
			// Label declarations / section markers: reserved, skipped.
			i++
			continue
		}

		op, ok := opcode.Lookup(rec.Op)
		if !ok {
			return nil, rerr.New(rerr.Shape, "unknown opcode %q", rec.Op).WithPosition(rec.Line, rec.Column)
		}
		if op == opcode.Arg {
			return nil, rerr.New(rerr.Shape, "unexpected arg record outside a call/struct header").WithPosition(rec.Line, rec.Column)
		}

		shape, ok := opcode.Shapes[op]
		if !ok {
			return nil, rerr.New(rerr.Shape, "opcode %q has no known shape", rec.Op).WithPosition(rec.Line, rec.Column)
		}
		if len(rec.Operands) != shape.Fixed {
			return nil, rerr.New(rerr.Shape, "opcode %q expects %d operands, got %d", rec.Op, shape.Fixed, len(rec.Operands)).WithPosition(rec.Line, rec.Column)
		}

		instr := ir.Instruction{Op: op, Line: rec.Line, Column: rec.Column}
		variadicCount := 0

		switch op {
		case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div, opcode.Band, opcode.Bor, opcode.Bxor,
			opcode.Shl, opcode.Shr, opcode.Gt, opcode.Lt, opcode.Eq, opcode.Neq, opcode.Gte, opcode.Lte:
			a, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			b, err := st.regOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			c, err := st.regOperand(rec.Operands[2], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B, instr.C = a, b, c

		case opcode.Bnot, opcode.Move, opcode.Cast, opcode.Address, opcode.Load, opcode.Store:
			a, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			b, err := st.regOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B = a, b

		case opcode.Return:
			a, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			instr.A = a

		case opcode.Jump:
			target, err := st.labelOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			instr.A = target

		case opcode.Branch:
			cond, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			target, err := st.labelOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B = cond, target

		case opcode.Constant:
			dest, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			idx := st.intern(constValue(rec.Operands[1]))
			instr.A, instr.B = dest, idx

		case opcode.Call:
			dest, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			argCount, err := st.intOperand(rec.Operands[2], rec)
			if err != nil {
				return nil, err
			}
			if rec.Operands[1].Kind == record.KindSymbol {
				idx := st.intern(rec.Operands[1].Symbol)
				op = opcode.Callk
				instr.Op = opcode.Callk
				instr.B = idx
			} else {
				callee, err := st.regOperand(rec.Operands[1], rec)
				if err != nil {
					return nil, err
				}
				instr.B = callee
			}
			instr.A, instr.C = dest, argCount
			variadicCount = argCount

		case opcode.Prim:
			destType, err := st.typeOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			kind, err := st.primOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B = destType, int(kind)

		case opcode.Struct:
			destType, err := st.typeOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			n, err := st.intOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B = destType, n
			variadicCount = n

		case opcode.Bind:
			reg, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			typeID, err := st.typeOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B = reg, typeID

		case opcode.Fget:
			dest, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			structReg, err := st.regOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			field, err := st.fieldOperand(rec.Operands[2], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B, instr.C = dest, structReg, field

		case opcode.Fset:
			structReg, err := st.regOperand(rec.Operands[0], rec)
			if err != nil {
				return nil, err
			}
			field, err := st.fieldOperand(rec.Operands[1], rec)
			if err != nil {
				return nil, err
			}
			src, err := st.regOperand(rec.Operands[2], rec)
			if err != nil {
				return nil, err
			}
			instr.A, instr.B, instr.C = structReg, field, src

		default:
			return nil, rerr.New(rerr.Shape, "unhandled opcode %q", rec.Op).WithPosition(rec.Line, rec.Column)
		}

		st.instructions = append(st.instructions, instr)
		i++

		if variadicCount > 0 {
			isTypeList := op == opcode.Struct
			carriers := (variadicCount + 2) / 3
			for c := 0; c < carriers; c++ {
				if i >= len(input.Instructions) {
					return nil, rerr.New(rerr.Shape, "missing arg carrier after %q", rec.Op).WithPosition(rec.Line, rec.Column)
				}
				carrierRec := input.Instructions[i]
				if carrierRec.Keyword != "" || carrierRec.Op != "arg" {
					return nil, rerr.New(rerr.Shape, "expected arg carrier after %q, got %q", rec.Op, carrierRec.Op).WithPosition(carrierRec.Line, carrierRec.Column)
				}
				if len(carrierRec.Operands) == 0 || len(carrierRec.Operands) > 3 {
					return nil, rerr.New(rerr.Shape, "arg carrier must pack 1-3 operands, got %d", len(carrierRec.Operands)).WithPosition(carrierRec.Line, carrierRec.Column)
				}
				var packed [3]int
				for k, operand := range carrierRec.Operands {
					logicalIndex := c*3 + k
					if logicalIndex >= variadicCount {
						break // trailing pad slot in the last carrier; unused
					}
					var v int
					var err error
					if isTypeList {
						v, err = st.typeOperand(operand, carrierRec)
					} else {
						v, err = st.regOperand(operand, carrierRec)
					}
					if err != nil {
						return nil, err
					}
					packed[k] = v
				}
				st.instructions = append(st.instructions, ir.Instruction{
					Op: opcode.Arg, Arg: packed, Line: carrierRec.Line, Column: carrierRec.Column,
				})
				i++
			}
		}
	}

	if len(st.instructions) == 0 {
		return nil, rerr.New(rerr.Structure, "empty instruction sequence has no terminator")
	}
	last := st.instructions[len(st.instructions)-1].Op
	if last != opcode.Jump && last != opcode.Return {
		return nil, rerr.New(rerr.Structure, "last instruction must be jump or return, got %q", last)
	}

	if err := st.checkJumpTargets(); err != nil {
		return nil, err
	}

	return &parseResult{
		instructions:  st.instructions,
		registerCount: st.registerCount,
		typeDefCount:  st.typeDefCount,
		constants:     st.constants,
	}, nil
}

func (st *asmState) checkJumpTargets() error {
	n := len(st.instructions)
	for _, instr := range st.instructions {
		switch instr.Op {
		case opcode.Jump:
			if instr.A < 0 || instr.A >= n {
				return rerr.New(rerr.Shape, "jump target %d is out of range [0,%d)", instr.A, n).WithPosition(instr.Line, instr.Column)
			}
		case opcode.Branch:
			if instr.B < 0 || instr.B >= n {
				return rerr.New(rerr.Shape, "branch target %d is out of range [0,%d)", instr.B, n).WithPosition(instr.Line, instr.Column)
			}
		}
	}
	return nil
}

func (st *asmState) regOperand(o record.Operand, rec record.Record) (int, error) {
	v, err := st.intOperand(o, rec)
	if err != nil {
		return 0, err
	}
	if v+1 > st.registerCount {
		st.registerCount = v + 1
	}
	return v, nil
}

func (st *asmState) typeOperand(o record.Operand, rec record.Record) (int, error) {
	v, err := st.intOperand(o, rec)
	if err != nil {
		return 0, err
	}
	if v+1 > st.typeDefCount {
		st.typeDefCount = v + 1
	}
	return v, nil
}

func (st *asmState) fieldOperand(o record.Operand, rec record.Record) (int, error) {
	return st.intOperand(o, rec)
}

func (st *asmState) intOperand(o record.Operand, rec record.Record) (int, error) {
	if o.Kind != record.KindInt || o.Int < 0 {
		return 0, rerr.New(rerr.Shape, "expected a non-negative integer operand").WithValue(o).WithPosition(rec.Line, rec.Column)
	}
	return o.Int, nil
}

func (st *asmState) primOperand(o record.Operand, rec record.Record) (opcode.Prim, error) {
	if o.Kind != record.KindSymbol {
		return 0, rerr.New(rerr.Shape, "expected a primitive-kind symbol").WithValue(o).WithPosition(rec.Line, rec.Column)
	}
	p, ok := opcode.LookupPrim(o.Symbol)
	if !ok {
		return 0, rerr.New(rerr.Shape, "unknown primitive kind %q", o.Symbol).WithPosition(rec.Line, rec.Column)
	}
	return p, nil
}

// labelOperand consults the (always-empty today) label map first,
// then falls back to treating the operand as a direct instruction
// index, per spec.md §4.1.
func (st *asmState) labelOperand(o record.Operand, rec record.Record) (int, error) {
	if o.Kind == record.KindSymbol {
		if idx, ok := st.labels[o.Symbol]; ok {
			return idx, nil
		}
		return 0, rerr.New(rerr.Shape, "unresolved label %q", o.Symbol).WithPosition(rec.Line, rec.Column)
	}
	return st.intOperand(o, rec)
}

func (st *asmState) intern(v interface{}) int {
	if idx, ok := st.constIndex[v]; ok {
		return idx
	}
	idx := len(st.constants)
	st.constants = append(st.constants, v)
	st.constIndex[v] = idx
	return idx
}

// constValue extracts the underlying host value an embedded-constant
// operand carries, regardless of which Operand kind the record used
// to represent it.
func constValue(o record.Operand) interface{} {
	switch o.Kind {
	case record.KindInt:
		return o.Int
	case record.KindSymbol:
		return o.Symbol
	default:
		return o.Const
	}
}
