// Command kaleido drives the compiler: it compiles a source file, or
// runs an interactive session where each line is one top-level
// definition. Top-level expressions are compiled into the anonymous
// wrapper function and evaluated immediately.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterh/liner"

	"kaleido/pkg/compiler"
	"kaleido/pkg/interp"
	"kaleido/pkg/llvmgen"
	"kaleido/pkg/ssa"
)

const (
	historyFile = ".kaleido_history"
	prompt      = "ready> "
)

func main() {
	emitLLVM := flag.Bool("emit-llvm", false, "compile with the LLVM backend and print the IR module")
	showIR := flag.Bool("ir", false, "in interactive mode, print the IR of each compiled definition")
	flag.Parse()

	if flag.NArg() > 0 {
		if err := compileFile(flag.Arg(0), *emitLLVM); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}
	repl(*showIR)
}

// compileFile compiles every definition in path and prints the
// resulting module.
func compileFile(path string, emitLLVM bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if emitLLVM {
		be := llvmgen.New()
		if _, err := compiler.NewSession(be).CompileAll(string(data)); err != nil {
			return err
		}
		fmt.Print(be.Module.String())
		return nil
	}

	mod := ssa.NewModule()
	if _, err := compiler.NewSession(ssa.NewBuilder(mod)).CompileAll(string(data)); err != nil {
		return err
	}
	fmt.Print(mod.String())
	return nil
}

func repl(showIR bool) {
	mod := ssa.NewModule()
	session := compiler.NewSession(ssa.NewBuilder(mod))
	machine := interp.New(mod)
	machine.Bind("putchard", func(args []float64) float64 {
		fmt.Printf("%c", rune(args[0]))
		return 0
	})
	machine.Bind("printd", func(args []float64) float64 {
		fmt.Printf("%v\n", args[0])
		return 0
	})

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := filepath.Join(os.TempDir(), historyFile)
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("kaleido interactive session. Ctrl+D exits.")
	for {
		src, err := line.Prompt(prompt)
		if err != nil { // io.EOF or liner.ErrPromptAborted
			fmt.Println()
			return
		}
		if src == "" {
			continue
		}
		line.AppendHistory(src)

		fn, _, err := session.Compile(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		if showIR {
			if routine, ok := mod.Lookup(fn.Proto.Name); ok {
				fmt.Print(routine)
			}
		}
		if fn.IsAnon {
			result, err := machine.Run(compiler.AnonFuncName)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Println(result)
		}
	}
}
