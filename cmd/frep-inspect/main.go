// Command frep-inspect decodes a serialized tree (or a YAML tree document)
// and prints its structure: the prefix form, derived flags, and a record
// table in encoding order.
//
// Usage:
//
//	frep-inspect [-yaml] [-optimize] [-color mode] [-log-level level] file
//
// A file of "-" reads from stdin.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/spatialkit/frep"
	"github.com/spatialkit/frep/pkg/treefmt"
	"github.com/spatialkit/frep/pkg/treeyaml"
)

func main() {
	var (
		yamlIn   = flag.Bool("yaml", false, "input is a YAML tree document")
		optimize = flag.Bool("optimize", false, "also print the optimized form")
		color    = flag.String("color", "auto", "colorize output: auto, always, never")
		logLevel = flag.String("log-level", "warn", "log level: error, warn, info, debug")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: frep-inspect [flags] file")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := frep.NewLogger(frep.ParseLogLevel(*logLevel), os.Stderr)
	frep.SetDebugLogger(logger)

	data, err := readInput(flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	var t frep.Tree
	if *yamlIn {
		t, err = treeyaml.Unmarshal(data)
	} else {
		t, err = frep.Deserialize(bytes.NewReader(data))
	}
	if err != nil {
		fatal(err)
	}
	defer t.Release()

	useColor := colorEnabled(*color)

	fmt.Printf("tree:  %s\n", treefmt.Format(t))
	fmt.Printf("size:  %d\n", t.Size())
	fmt.Printf("flags: %s\n", flagString(t.Flags()))
	fmt.Println()
	printRecords(t, useColor)

	if *optimize {
		opt := t.Optimized()
		defer opt.Release()
		fmt.Println()
		fmt.Printf("optimized: %s\n", treefmt.Format(opt))
		fmt.Printf("size:      %d\n", opt.Size())
	}
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

// printRecords lists each distinct node in post-order, the order Serialize
// writes records, with per-child back-offsets.
func printRecords(t frep.Tree, useColor bool) {
	index := make(map[frep.ID]int)
	next := 0

	w := t.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		op := cur.Op()
		name := runewidth.FillRight(op.String(), 10)
		if useColor {
			name = "\x1b[32m" + name + "\x1b[0m"
		}

		detail := ""
		switch {
		case op == frep.OpConstant:
			v, _ := cur.Value()
			detail = fmt.Sprintf("%g", v)
		case op == frep.OpOracle:
			detail = "'" + cur.OracleClause().Name()
		default:
			for i := 0; i < op.Args(); i++ {
				if i > 0 {
					detail += " "
				}
				detail += fmt.Sprintf("^%d", next-index[cur.Arg(i).ID()]-1)
			}
		}

		fmt.Printf("%4d: %s %s\n", next, name, detail)
		index[cur.ID()] = next
		next++
	}
}

func flagString(f frep.TreeFlags) string {
	parts := []struct {
		flag frep.TreeFlags
		name string
	}{
		{frep.FlagHasXYZ, "xyz"},
		{frep.FlagHasVar, "var"},
		{frep.FlagHasRemap, "remap"},
		{frep.FlagHasOracle, "oracle"},
	}
	out := ""
	for _, p := range parts {
		if f.Has(p.flag) {
			if out != "" {
				out += ","
			}
			out += p.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "frep-inspect: %v\n", err)
	os.Exit(1)
}
