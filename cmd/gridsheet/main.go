// Command gridsheet is a line-oriented shell over a single in-memory
// sheet, wiring together internal/sheet, internal/xlsxio, and
// internal/liveserver.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"gridsheet/internal/liveserver"
	"gridsheet/internal/position"
	"gridsheet/internal/sheet"
	"gridsheet/internal/xlsxio"
)

const (
	prompt = "gridsheet> "
	help   = `Commands:
  set <cell> <text>   set a cell's content (prefix text with = for a formula)
  get <cell>           print a cell's value and its literal text
  clear <cell>         clear a cell
  print                print the printable region's values
  texts                print the printable region's literal texts
  load <path.xlsx>      import a workbook's cells into the current sheet (other cells are kept)
  save <path.xlsx>      export the current sheet to a workbook
  serve <addr>          serve the sheet live over WebSocket at addr (e.g. :8080)
  help                  show this message
  quit                  exit
`
)

func main() {
	logLevel := flag.String("log-level", "info", "zerolog level: debug, info, warn, error")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridsheet: invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	sh := sheet.New().WithLogger(log)
	run(os.Stdin, os.Stdout, sh, log)
}

func run(in io.Reader, out io.Writer, sh *sheet.Sheet, log zerolog.Logger) {
	fmt.Fprint(out, help)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "quit", "exit":
			return
		case "help":
			fmt.Fprint(out, help)
		case "set":
			runSet(out, sh, args, line)
		case "get":
			runGet(out, sh, args)
		case "clear":
			runClear(out, sh, args)
		case "print":
			_ = sh.PrintValues(out)
		case "texts":
			_ = sh.PrintTexts(out)
		case "load":
			runLoad(out, sh, args)
		case "save":
			runSave(out, sh, args)
		case "serve":
			runServe(out, sh, args, log)
		default:
			fmt.Fprintf(out, "unknown command %q; type help\n", cmd)
		}
	}
}

func runSet(out io.Writer, sh *sheet.Sheet, args []string, line string) {
	if len(args) < 1 {
		fmt.Fprintln(out, "usage: set <cell> <text>")
		return
	}
	pos, err := position.Parse(args[0])
	if err != nil {
		fmt.Fprintf(out, "invalid cell %q: %v\n", args[0], err)
		return
	}
	// The text may itself contain spaces (e.g. a formula with spaces, or
	// plain prose), so re-slice the original line rather than rejoining
	// fields.
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "set "+args[0]))
	if err := sh.SetCell(pos, text); err != nil {
		fmt.Fprintf(out, "set %s failed: %v\n", args[0], err)
	}
}

func runGet(out io.Writer, sh *sheet.Sheet, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: get <cell>")
		return
	}
	pos, err := position.Parse(args[0])
	if err != nil {
		fmt.Fprintf(out, "invalid cell %q: %v\n", args[0], err)
		return
	}
	ref, ok := sh.GetCell(pos)
	if !ok {
		fmt.Fprintln(out, "(empty)")
		return
	}
	fmt.Fprintf(out, "%s\t%s\n", ref.GetValue().Display(), ref.GetText())
}

func runClear(out io.Writer, sh *sheet.Sheet, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: clear <cell>")
		return
	}
	pos, err := position.Parse(args[0])
	if err != nil {
		fmt.Fprintf(out, "invalid cell %q: %v\n", args[0], err)
		return
	}
	if err := sh.ClearCell(pos); err != nil {
		fmt.Fprintf(out, "clear %s failed: %v\n", args[0], err)
	}
}

func runLoad(out io.Writer, sh *sheet.Sheet, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: load <path.xlsx>")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(out, "load failed: %v\n", err)
		return
	}
	defer f.Close()
	if err := xlsxio.Import(f, sh); err != nil {
		fmt.Fprintf(out, "load failed: %v\n", err)
	}
}

func runSave(out io.Writer, sh *sheet.Sheet, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: save <path.xlsx>")
		return
	}
	f, err := os.Create(args[0])
	if err != nil {
		fmt.Fprintf(out, "save failed: %v\n", err)
		return
	}
	defer f.Close()
	if err := xlsxio.Export(sh, f); err != nil {
		fmt.Fprintf(out, "save failed: %v\n", err)
	}
}

func runServe(out io.Writer, sh *sheet.Sheet, args []string, log zerolog.Logger) {
	addr := ":8080"
	if len(args) == 1 {
		addr = args[0]
	}
	srv := liveserver.New(sh, log)
	fmt.Fprintf(out, "serving live at ws://%s — press Ctrl+C to stop\n", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		fmt.Fprintf(out, "serve failed: %v\n", err)
	}
}
