// lumen-inspect - disassembles compiled Lumen function images and dumps
// runtime tables.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/lumenvm/lumen/inspect"
	"github.com/lumenvm/lumen/manifest"
	"github.com/lumenvm/lumen/vm"
	"github.com/lumenvm/lumen/vm/dist"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	tee := flag.String("o", "", "Duplicate output to this file (overrides lumen.toml)")
	dumpAtoms := flag.Bool("atoms", false, "Dump the interned-string table")
	dumpObjects := flag.Bool("objects", false, "Dump the live-object list")
	showVersion := flag.Bool("version", false, "Print the bytecode format version and exit")
	verbosity := flag.Int("verbosity", 0, "Log verbosity")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lumen-inspect [options] [image...]\n\n")
		fmt.Fprintf(os.Stderr, "Disassembles every compiled function reachable from each image's entry\n")
		fmt.Fprintf(os.Stderr, "function. Reads sink settings from lumen.toml when present.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lumen-inspect app.lbc              # Disassemble one image\n")
		fmt.Fprintf(os.Stderr, "  lumen-inspect -o dump.txt app.lbc  # Duplicate output to dump.txt\n")
		fmt.Fprintf(os.Stderr, "  lumen-inspect -atoms -objects app.lbc\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	if *showVersion {
		fmt.Printf("bytecode format v%d\n", inspect.FormatVersion())
		return
	}

	// Sink settings: flags win over lumen.toml.
	teePath := *tee
	telemetryPath := ""
	wantAtoms := *dumpAtoms
	wantObjects := *dumpObjects

	if m, err := manifest.FindAndLoad("."); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading lumen.toml: %v\n", err)
		os.Exit(1)
	} else if m != nil {
		if teePath == "" {
			teePath = m.TeePath()
		}
		telemetryPath = m.TelemetryPath()
		wantAtoms = wantAtoms || m.Dumps.Atoms
		wantObjects = wantObjects || m.Dumps.Objects
	}

	rt := vm.NewRuntime()
	sink := inspect.NewSink(os.Stdout)
	defer sink.Disarm()

	if teePath != "" {
		if err := sink.Arm(teePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if telemetryPath != "" {
		f, err := os.Create(telemetryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening telemetry stream: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		sink.Attach(inspect.NewCBORWriter(f))
	}

	inspector := inspect.NewInspector(sink, func(fn *vm.FuncBytecode) string {
		return vm.DisassembleFunc(fn, rt.Atoms)
	})

	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			os.Exit(1)
		}
		fn, err := dist.DecodeFunc(rt.Atoms, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", path, err)
			os.Exit(1)
		}
		inspector.Inspect(fn.Box())
	}

	if wantAtoms {
		inspect.DumpAtoms(sink, rt.Atoms)
	}
	if wantObjects {
		inspect.DumpObjects(sink, rt.Heap)
	}
}
