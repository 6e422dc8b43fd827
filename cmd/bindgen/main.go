package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dartffi/bindgen/gen"
	"github.com/dartffi/bindgen/model"
)

func main() {
	var (
		modelFile   = flag.String("model", "", "Path to interface model JSON file")
		configFile  = flag.String("config", "", "Path to bindgen.toml (optional)")
		outFile     = flag.String("out", "lib.dart", "Output path for the generated Dart")
		witExpr     = flag.String("wit", "", "Print the mapping for one WIT type expression and exit")
		list        = flag.Bool("list", false, "List model declarations and exit")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *modelFile == "" && *witExpr == "" {
		fmt.Fprintln(os.Stderr, "Usage: bindgen -model <model.json> [-config bindgen.toml] [-out lib.dart]")
		fmt.Fprintln(os.Stderr, "       bindgen -model <model.json> -list")
		fmt.Fprintln(os.Stderr, "       bindgen -model <model.json> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       bindgen -wit <type expr>  [-model <model.json>]")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = dev
	}
	defer log.Sync()

	if *interactive {
		if err := runInteractive(*modelFile, *configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*modelFile, *configFile, *outFile, *witExpr, *list, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelFile, configFile, outFile, witExpr string, listOnly bool, log *zap.Logger) error {
	defs := &model.Definitions{}
	if modelFile != "" {
		loaded, err := model.LoadFile(modelFile)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		defs = loaded
	}

	if witExpr != "" {
		return printWITMapping(witExpr, defs)
	}

	// Show model info
	fmt.Printf("Model: %s (namespace %s)\n", modelFile, defs.Namespace)
	fmt.Printf("Enums: %d  Records: %d  Objects: %d  Callbacks: %d  Functions: %d\n",
		len(defs.Enums), len(defs.Records), len(defs.Objects), len(defs.Callbacks), len(defs.Functions))

	if listOnly {
		listDeclarations(defs)
		return nil
	}

	cfg, err := gen.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out, err := gen.NewGenerator(defs, cfg, log).Generate()
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := os.WriteFile(outFile, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("\nWrote %s (%d bytes)\n", outFile, len(out))
	return nil
}

// printWITMapping parses a WIT type expression and prints how it crosses
// the boundary. Named references resolve against the loaded model when one
// was given.
func printWITMapping(expr string, defs *model.Definitions) error {
	t, err := model.ParseWITType(expr, defs)
	if err != nil {
		return err
	}
	fmt.Printf("wit:       %s\n", expr)
	fmt.Printf("dart:      %s\n", gen.TypeLabel(t))
	fmt.Printf("converter: %s\n", gen.ConverterName(t))
	fmt.Printf("canonical: %s\n", gen.ExceptionSafeName(gen.CanonicalName(t)))
	return nil
}

func listDeclarations(defs *model.Definitions) {
	if len(defs.Enums) > 0 {
		fmt.Printf("\nEnums:\n")
		for _, e := range defs.Enums {
			shape := "payload"
			if e.IsFlat() {
				shape = "flat"
			}
			fmt.Printf("  %s (%s, %d variants)\n", gen.ClassName(e.Name), shape, len(e.Variants))
		}
	}
	if len(defs.Records) > 0 {
		fmt.Printf("\nRecords:\n")
		for _, r := range defs.Records {
			var fields []string
			for _, f := range r.Fields {
				fields = append(fields, gen.VarName(f.Name)+": "+gen.TypeLabel(f.Type))
			}
			fmt.Printf("  %s { %s }\n", gen.ClassName(r.Name), strings.Join(fields, ", "))
		}
	}
	if len(defs.Objects) > 0 {
		fmt.Printf("\nObjects:\n")
		for _, o := range defs.Objects {
			fmt.Printf("  %s (%s)\n", gen.ClassName(o.Name), o.Impl)
			for _, c := range o.Constructors {
				fmt.Printf("    constructor %s\n", formatCallable(c.Name, c.Args, nil, c.Throws, false))
			}
			for _, m := range o.Methods {
				fmt.Printf("    %s\n", formatCallable(m.Name, m.Args, m.Return, m.Throws, m.Async))
			}
		}
	}
	if len(defs.Callbacks) > 0 {
		fmt.Printf("\nCallback interfaces:\n")
		for _, cb := range defs.Callbacks {
			fmt.Printf("  %s\n", gen.ClassName(cb.Name))
			for _, m := range cb.Methods {
				fmt.Printf("    %s\n", formatCallable(m.Name, m.Args, m.Return, m.Throws, m.Async))
			}
		}
	}
	if len(defs.Functions) > 0 {
		fmt.Printf("\nFunctions:\n")
		for _, fn := range defs.Functions {
			fmt.Printf("  %s\n", formatCallable(fn.Name, fn.Args, fn.Return, fn.Throws, fn.Async))
		}
	}
}

func formatCallable(name string, args []*model.Argument, ret *model.Type, throws string, async bool) string {
	var params []string
	for _, a := range args {
		params = append(params, gen.VarName(a.Name)+": "+gen.TypeLabel(a.Type))
	}
	sig := gen.FuncName(name) + "(" + strings.Join(params, ", ") + ")"
	if ret != nil {
		sig += " -> " + gen.TypeLabel(*ret)
	}
	if throws != "" {
		sig += " throws " + gen.ClassName(throws)
	}
	if async {
		sig += " async"
	}
	return sig
}
