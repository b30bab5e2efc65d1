package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/viperlang/viper-aarch64/internal/codegen/aarch64"
	"github.com/viperlang/viper-aarch64/internal/diag"
	"github.com/viperlang/viper-aarch64/internal/driverutil"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated out so it can be exercised with in-memory writers in tests,
// the same split the teacher's own cmd/wazero.doMain uses.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		return 0
	}

	switch cmd := flag.Arg(0); cmd {
	case "compile":
		return doCompile(flag.Args()[1:], stdOut, stdErr)
	default:
		fmt.Fprintf(stdErr, "unknown command %q\n", cmd)
		printUsage(stdErr)
		return 1
	}
}

func doCompile(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("compile", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var help bool
	flags.BoolVar(&help, "h", false, "Prints usage.")

	var out string
	flags.StringVar(&out, "o", "", "Write assembly to this path instead of stdout.")

	if err := flags.Parse(args); err != nil {
		return 1
	}
	if help {
		printCompileUsage(stdErr, flags)
		return 0
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(stdErr, "missing path to IL JSON file (use - for stdin)")
		printCompileUsage(stdErr, flags)
		return 1
	}

	data, err := readInput(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(stdErr, "error reading IL: %v\n", err)
		return 1
	}

	fns, err := decodeModule(data)
	if err != nil {
		fmt.Fprintf(stdErr, "error decoding IL: %v\n", err)
		return 1
	}

	w := stdOut
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			fmt.Fprintf(stdErr, "error opening output file: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}

	sink := diag.NewSink(stdErr)
	target := aarch64.NewTargetAArch64Darwin()
	err = driverutil.Recover(func() {
		err = aarch64.CompileModule(fns, target, sink, w)
	})
	if err != nil {
		fmt.Fprintf(stdErr, "error compiling: %v\n", err)
		return 1
	}
	if n := sink.Warnings(); n > 0 {
		fmt.Fprintf(stdErr, "%d warning(s)\n", n)
	}
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "viperc - AArch64 backend driver")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "\tviperc <command>")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "\tcompile\tCompiles a JSON-encoded IL function (or array of functions) to AArch64 assembly.")
}

func printCompileUsage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(w, "viperc compile [-o output] <path|->")
	flags.PrintDefaults()
}
