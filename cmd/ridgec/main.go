// Command ridgec is a thin CLI around the core pipeline: it decodes a
// JSON-shaped stand-in for a host-supplied instruction table, runs
// assemble.Assemble (parse + type-env + type-check), and either
// prints the resulting InvalidInput or emits C with cbackend.EmitC.
// It plays the role sentra/cmd/sentra/main.go plays for the teacher:
// a hand-rolled arg dispatcher, no CLI framework.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"ridgec/internal/assemble"
	"ridgec/internal/cbackend"
	"ridgec/internal/config"
	"ridgec/internal/record"
	"ridgec/internal/rerr"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("ridgec: %v", err)
	}

	in := os.Stdin
	if cfg.InputPath != "-" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			log.Fatalf("ridgec: %v", err)
		}
		defer f.Close()
		in = f
	}

	input, err := record.ReadProgram(in)
	if err != nil {
		log.Fatalf("ridgec: %v", err)
	}

	prog, err := assemble.Assemble(input)
	if err != nil {
		var invalid *rerr.InvalidInput
		if isInvalidInput(err, &invalid) {
			fmt.Fprintln(os.Stderr, invalid.Error())
			os.Exit(1)
		}
		log.Fatalf("ridgec: %v", err)
	}

	if cfg.CheckOnly {
		fmt.Printf("ok: %s/%d params, return type %d\n", prog.LinkName, prog.ParameterCount, prog.ReturnType)
		return
	}

	opts := cbackend.Options{}
	if cfg.TagBuild {
		opts.BuildID = uuid.New().String()
	}

	var buf bytes.Buffer
	cbackend.EmitC(prog, &buf, opts)
	os.Stdout.Write(buf.Bytes())
}

func isInvalidInput(err error, out **rerr.InvalidInput) bool {
	if invalid, ok := err.(*rerr.InvalidInput); ok {
		*out = invalid
		return true
	}
	return false
}
