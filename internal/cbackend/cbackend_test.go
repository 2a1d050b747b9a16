package cbackend

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"ridgec/internal/ir"
	"ridgec/internal/opcode"
)

// scenarioA mirrors the "add two s32 params" walkthrough: prim s32 at
// type 0 (the default, omitted here), two bound parameter registers, an
// add, and a return.
func scenarioA() *ir.Program {
	return &ir.Program{
		LinkName:       "add2",
		ParameterCount: 2,
		RegisterCount:  3,
		TypeDefs:       []ir.TypeDef{{Prim: opcode.S32}},
		RegisterTypes:  []int{0, 0, 0},
		ReturnType:     0,
		Instructions: []ir.Instruction{
			{Op: opcode.Bind, A: 0, B: 0},
			{Op: opcode.Bind, A: 1, B: 0},
			{Op: opcode.Bind, A: 2, B: 0},
			{Op: opcode.Add, A: 2, B: 0, C: 1},
			{Op: opcode.Return, A: 2},
		},
	}
}

func TestEmitCScenarioAShape(t *testing.T) {
	prog := scenarioA()
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{})
	out := buf.String()

	wantSignature := "_t0 add2(_t0 _r0, _t0 _r1) {"
	if !strings.Contains(out, wantSignature) {
		t.Fatalf("expected signature %q in output:\n%s", wantSignature, out)
	}
	if !strings.Contains(out, "_t0 _r2;") {
		t.Fatalf("expected register 2 declared, got:\n%s", out)
	}
	if !strings.Contains(out, "_r2 = _r0 + _r1;") {
		t.Fatalf("expected add statement, got:\n%s", out)
	}
	if !strings.Contains(out, "return _r2;") {
		t.Fatalf("expected return statement, got:\n%s", out)
	}
	if strings.Contains(out, "typedef") {
		t.Fatalf("scenario A has no prim/struct instructions, expected no typedefs, got:\n%s", out)
	}
}

func TestEmitCBindProducesNoStatementOrLabel(t *testing.T) {
	prog := scenarioA()
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{})
	out := buf.String()
	for i := 0; i < 3; i++ {
		label := "_i" + strconv.Itoa(i) + ":"
		if strings.Contains(out, label) {
			t.Fatalf("bind instruction %d must not receive a label, got:\n%s", i, out)
		}
	}
}

func TestEmitCGteEmitsCorrectedOperator(t *testing.T) {
	prog := &ir.Program{
		LinkName:      "cmp",
		RegisterCount: 3,
		TypeDefs:      []ir.TypeDef{{Prim: opcode.S32}, {Prim: opcode.Boolean}},
		RegisterTypes: []int{0, 0, 1},
		Instructions: []ir.Instruction{
			{Op: opcode.Gte, A: 2, B: 0, C: 1},
			{Op: opcode.Return, A: 2},
		},
	}
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{})
	out := buf.String()
	if !strings.Contains(out, "_r2 = _r0 >= _r1;") {
		t.Fatalf("expected corrected >= operator, got:\n%s", out)
	}
	if strings.Contains(out, "_r2 = _r0 > _r1;") {
		t.Fatalf("must not emit the bare > bug, got:\n%s", out)
	}
}

func TestEmitCStructTypedef(t *testing.T) {
	prog := &ir.Program{
		LinkName:      "getfield",
		RegisterCount: 2,
		TypeDefs: []ir.TypeDef{
			{Prim: opcode.S32},
			{Prim: opcode.StructKind, FieldStart: 0, FieldCount: 1},
		},
		Fields:        []ir.Field{{Type: 0}},
		RegisterTypes: []int{1, 0},
		Instructions: []ir.Instruction{
			{Op: opcode.Struct, A: 1, B: 1},
			{Op: opcode.Arg, Arg: [3]int{0, 0, 0}},
			{Op: opcode.Fget, A: 1, B: 0, C: 0},
			{Op: opcode.Return, A: 1},
		},
	}
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{})
	out := buf.String()
	if !strings.Contains(out, "typedef struct { _t0 _f0; } _t1;") {
		t.Fatalf("expected struct typedef, got:\n%s", out)
	}
	if !strings.Contains(out, "_r1 = _r0._f0;") {
		t.Fatalf("expected fget statement, got:\n%s", out)
	}
}

func TestEmitCBuildIDComment(t *testing.T) {
	prog := scenarioA()
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{BuildID: "abc-123"})
	if !strings.Contains(buf.String(), "// build abc-123") {
		t.Fatalf("expected build-id comment, got:\n%s", buf.String())
	}
}

func TestEmitCCallJoinsCarrierArgs(t *testing.T) {
	prog := &ir.Program{
		LinkName:      "callprintf",
		RegisterCount: 1,
		TypeDefs:      []ir.TypeDef{{Prim: opcode.S32}},
		RegisterTypes: []int{0},
		Constants:     []interface{}{42, "printf"},
		Instructions: []ir.Instruction{
			{Op: opcode.Constant, A: 0, B: 0},
			{Op: opcode.Callk, A: 0, B: 1, C: 1},
			{Op: opcode.Arg, Arg: [3]int{0, 0, 0}},
			{Op: opcode.Return, A: 0},
		},
	}
	var buf bytes.Buffer
	EmitC(prog, &buf, Options{})
	out := buf.String()
	if !strings.Contains(out, "_r0 = printf(_r0);") {
		t.Fatalf("expected callk statement with joined args, got:\n%s", out)
	}
}
