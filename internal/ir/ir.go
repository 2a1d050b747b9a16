// Package ir is the data model spec.md §3 describes: the tagged
// instruction, the type-def / field tables, and the immutable
// top-level Program that the assembler hands to the type-env
// builder, the type-env builder hands to the type checker, and the
// type checker hands to the C backend.
package ir

import "ridgec/internal/opcode"

// Instruction is a tagged record. Which of A, B, C mean what depends
// on Op — this mirrors the teacher's packed iABC register-instruction
// format (sentra/internal/vmregister.Instruction), generalized from a
// bit-packed uint32 to plain ints since ridgec has no byte-code size
// budget to hit. Arg is only meaningful when Op == opcode.Arg.
//
//	Op                          A              B               C
//	add/sub/.../gt/.../lte      dest           lhs             rhs
//	move/cast/bnot/address/load dest           src             -
//	store                       dest (ptr)     src             -
//	return                      src            -               -
//	jump                        target         -               -
//	branch                      cond           target          -
//	constant                    dest           const index     -
//	call/callk                  dest           callee/const    arg_count
//	prim                        dest_type      primkind        -
//	struct                      dest_type      field_count     -
//	bind                        register       type_id         -
//	fget                        dest           struct_reg      field_idx
//	fset                        struct_reg     field_idx       src
type Instruction struct {
	Op      opcode.Op
	A, B, C int
	Arg     [3]int
	Line    int
	Column  int
}

// TypeDef is a primitive scalar or a struct aggregate. Structs carry
// a (FieldStart, FieldCount) slice into the Program's shared Fields
// table; scalars leave both zero.
type TypeDef struct {
	Prim       opcode.Prim
	FieldStart int
	FieldCount int
}

// Field is one slot in the flat field table shared by all structs.
type Field struct {
	Type int
}

// Program is the immutable top-level IR record spec.md §3 calls the
// "Top-level IR record". It owns every slice it holds; once assemble
// returns one successfully nothing mutates it again.
type Program struct {
	LinkName      string
	ParameterCount int
	Instructions  []Instruction
	RegisterCount int
	TypeDefs      []TypeDef
	Fields        []Field
	Constants     []interface{}
	RegisterTypes []int // type-id per register, index-aligned with RegisterCount
	ReturnType    int
}
