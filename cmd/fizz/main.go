package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/clarete/fizz"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run holds main's actual work, kept separate so the CLI's flag
// handling and evaluation path can be exercised by a test without
// forking a subprocess or calling log.Fatal.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("fizz", flag.ContinueOnError)
	gcPolicy := fs.String("gc-policy", "per_256_calls", "GC trigger policy: per_256_calls or manual")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: fizz [flags] <script.fizz>")
	}
	path := fs.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	cfg := fizz.NewConfig()
	cfg.SetString("gc.policy", *gcPolicy)
	vm := fizz.NewVM(cfg)

	result, err := fizz.EvalString(vm, string(src))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, fizz.Print(result))
	return nil
}
