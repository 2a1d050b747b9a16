package assemble

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ridgec/internal/cbackend"
	"ridgec/internal/record"
)

// openGolden opens a JSON program from the top-level testdata/ directory,
// the same golden-program location cmd/ridgec's own manual smoke-testing
// reads from.
func openGolden(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", name))
	if err != nil {
		t.Fatalf("opening golden file %s: %v", name, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestGoldenScenarioAEndToEnd(t *testing.T) {
	input, err := record.ReadProgram(openGolden(t, "scenario_a_add_params.json"))
	if err != nil {
		t.Fatalf("reading golden program: %v", err)
	}
	prog, err := Assemble(input)
	if err != nil {
		t.Fatalf("unexpected assembly error: %v", err)
	}
	var buf bytes.Buffer
	cbackend.EmitC(prog, &buf, cbackend.Options{})
	out := buf.String()
	if !strings.Contains(out, "_t0 add2(_t0 _r0, _t0 _r1) {") {
		t.Fatalf("unexpected emitted signature:\n%s", out)
	}
	if !strings.Contains(out, "return _r2;") {
		t.Fatalf("unexpected emitted body:\n%s", out)
	}
}

func TestGoldenScenarioBEndToEnd(t *testing.T) {
	input, err := record.ReadProgram(openGolden(t, "scenario_b_named_call.json"))
	if err != nil {
		t.Fatalf("reading golden program: %v", err)
	}
	prog, err := Assemble(input)
	if err != nil {
		t.Fatalf("unexpected assembly error: %v", err)
	}
	found := false
	for _, c := range prog.Constants {
		if c == "printf" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected printf interned in constant pool, got %v", prog.Constants)
	}
	var buf bytes.Buffer
	cbackend.EmitC(prog, &buf, cbackend.Options{})
	if !strings.Contains(buf.String(), "_r0 = printf();") {
		t.Fatalf("expected a printf call in emitted C:\n%s", buf.String())
	}
}

func TestGoldenScenarioCEndToEnd(t *testing.T) {
	input, err := record.ReadProgram(openGolden(t, "scenario_c_struct_field.json"))
	if err != nil {
		t.Fatalf("reading golden program: %v", err)
	}
	prog, err := Assemble(input)
	if err != nil {
		t.Fatalf("unexpected assembly error: %v", err)
	}
	var buf bytes.Buffer
	cbackend.EmitC(prog, &buf, cbackend.Options{})
	out := buf.String()
	if !strings.Contains(out, "typedef struct { _t0 _f0; } _t1;") {
		t.Fatalf("expected struct typedef in emitted C:\n%s", out)
	}
	if !strings.Contains(out, "_r1 = _r0._f0;") {
		t.Fatalf("expected fget statement in emitted C:\n%s", out)
	}
}
