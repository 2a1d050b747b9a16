package typeenv

import (
	"testing"

	"ridgec/internal/ir"
	"ridgec/internal/opcode"
)

func TestBuildScalarPrimAndBind(t *testing.T) {
	prog := &ir.Program{
		RegisterCount: 2,
		Instructions: []ir.Instruction{
			{Op: opcode.Prim, A: 1, B: int(opcode.F32)},
			{Op: opcode.Bind, A: 0, B: 0},
			{Op: opcode.Bind, A: 1, B: 1},
			{Op: opcode.Return, A: 0},
		},
	}
	if err := Build(prog, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.TypeDefs[0].Prim != opcode.S32 {
		t.Fatalf("expected type 0 to default to s32, got %s", prog.TypeDefs[0].Prim)
	}
	if prog.TypeDefs[1].Prim != opcode.F32 {
		t.Fatalf("expected type 1 to be f32, got %s", prog.TypeDefs[1].Prim)
	}
	if prog.RegisterTypes[0] != 0 || prog.RegisterTypes[1] != 1 {
		t.Fatalf("unexpected register types: %v", prog.RegisterTypes)
	}
}

func TestBuildStructWithCarriers(t *testing.T) {
	prog := &ir.Program{
		RegisterCount: 2,
		Instructions: []ir.Instruction{
			{Op: opcode.Prim, A: 0, B: int(opcode.S32)},
			{Op: opcode.Struct, A: 1, B: 2},
			{Op: opcode.Arg, Arg: [3]int{0, 0, 0}},
			{Op: opcode.Bind, A: 0, B: 1},
			{Op: opcode.Return, A: 0},
		},
	}
	if err := Build(prog, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td := prog.TypeDefs[1]
	if td.Prim != opcode.StructKind {
		t.Fatalf("expected type 1 to be a struct, got %s", td.Prim)
	}
	if td.FieldCount != 2 {
		t.Fatalf("expected 2 fields, got %d", td.FieldCount)
	}
	if prog.Fields[td.FieldStart].Type != 0 || prog.Fields[td.FieldStart+1].Type != 0 {
		t.Fatalf("expected both fields to be type 0, got %v", prog.Fields)
	}
}

func TestBuildStructMissingCarrierErrors(t *testing.T) {
	prog := &ir.Program{
		RegisterCount: 1,
		Instructions: []ir.Instruction{
			{Op: opcode.Struct, A: 0, B: 1},
		},
	}
	if err := Build(prog, 1); err == nil {
		t.Fatalf("expected an error for a struct missing its field-id carrier")
	}
}

func TestBuildBindOutOfRangeRegisterErrors(t *testing.T) {
	prog := &ir.Program{
		RegisterCount: 1,
		Instructions: []ir.Instruction{
			{Op: opcode.Bind, A: 5, B: 0},
		},
	}
	if err := Build(prog, 1); err == nil {
		t.Fatalf("expected an error for an out-of-range bind register")
	}
}
