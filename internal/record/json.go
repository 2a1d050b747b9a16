package record

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonRecord mirrors Record's JSON shape: either {"keyword": "..."} or
// {"op": "...", "operands": [...], "line": N, "column": N}.
type jsonRecord struct {
	Keyword  string            `json:"keyword,omitempty"`
	Op       string            `json:"op,omitempty"`
	Operands []json.RawMessage `json:"operands,omitempty"`
	Line     int               `json:"line,omitempty"`
	Column   int               `json:"column,omitempty"`
}

type jsonProgram struct {
	Instructions   []jsonRecord `json:"instructions"`
	ParameterCount int          `json:"parameter_count"`
	LinkName       string       `json:"link_name"`
}

// wrappedConst is the escape hatch for an embedded constant whose JSON
// representation would otherwise be ambiguous with a bare int/string
// operand, e.g. {"const": true} or {"const": [1,2,3]}.
type wrappedConst struct {
	Const json.RawMessage `json:"const"`
}

func decodeOperand(raw json.RawMessage) (Operand, error) {
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return Int(int(asFloat)), nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return Symbol(asString), nil
	}
	var wrapped wrappedConst
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Const != nil {
		var v interface{}
		if err := json.Unmarshal(wrapped.Const, &v); err != nil {
			return Operand{}, fmt.Errorf("decoding wrapped constant: %w", err)
		}
		return Const(v), nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Operand{}, fmt.Errorf("decoding operand: %w", err)
	}
	return Const(v), nil
}

// ReadProgram decodes the JSON-shaped stand-in for a host-supplied
// instruction table. This is cmd/ridgec's input format; it is not part
// of the core's contract, only a concrete realization of "whatever the
// host can supply" for driving ridgec from the command line.
func ReadProgram(r io.Reader) (Program, error) {
	var jp jsonProgram
	dec := json.NewDecoder(r)
	if err := dec.Decode(&jp); err != nil {
		return Program{}, fmt.Errorf("decoding program: %w", err)
	}

	instrs := make([]Record, len(jp.Instructions))
	for i, jr := range jp.Instructions {
		if jr.Keyword != "" {
			instrs[i] = Record{Keyword: jr.Keyword, Line: jr.Line, Column: jr.Column}
			continue
		}
		operands := make([]Operand, len(jr.Operands))
		for j, raw := range jr.Operands {
			op, err := decodeOperand(raw)
			if err != nil {
				return Program{}, fmt.Errorf("instruction %d operand %d: %w", i, j, err)
			}
			operands[j] = op
		}
		instrs[i] = Record{Op: jr.Op, Operands: operands, Line: jr.Line, Column: jr.Column}
	}

	return Program{
		Instructions:   instrs,
		ParameterCount: jp.ParameterCount,
		LinkName:       jp.LinkName,
	}, nil
}
