// Command mask runs the mask scripting language: a file, a snippet passed
// on the command line, or an interactive REPL when given neither.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/scizzorz/mask/lexer"
	"github.com/scizzorz/mask/parser"
	"github.com/scizzorz/mask/repl"
	"github.com/scizzorz/mask/rewrite"
	"github.com/scizzorz/mask/token"
	"github.com/scizzorz/mask/vm"
)

const version = "0.1.0"

func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `mask v%s

USAGE:
    %s [OPTIONS] [path]

DESCRIPTION:
    mask runs an indentation-delimited scripting language. Given a file
    path it runs that file; given neither a path nor -code, it starts an
    interactive REPL.

OPTIONS:
    -code <src>    Run a snippet passed directly on the command line
    -tokens        Lex path and print its token stream, then exit
    -ast           Parse (and rewrite) path and print its statement tree, then exit
    -debug         Enable verbose timing output in the REPL
    -nocolor       Disable REPL syntax highlighting
    -version       Show version information

EXAMPLES:
    %s script.mask
    %s -code "print('hello')"
    %s -tokens script.mask
    %s -ast script.mask

`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage

	codeFlag := flag.String("code", "", "Run a snippet passed directly on the command line")
	tokensFlag := flag.Bool("tokens", false, "Lex path and print its token stream")
	astFlag := flag.Bool("ast", false, "Parse and print path's statement tree")
	debugFlag := flag.Bool("debug", false, "Enable verbose timing output in the REPL")
	nocolorFlag := flag.Bool("nocolor", false, "Disable REPL syntax highlighting")
	versionFlag := flag.Bool("version", false, "Show version information")

	flag.Parse()

	if *versionFlag {
		fmt.Printf("mask v%s\n", version)
		return
	}

	path := flag.Arg(0)

	switch {
	case *codeFlag != "":
		runSource("<code>", *codeFlag)

	case *tokensFlag:
		requirePath(path)
		dumpTokens(path)

	case *astFlag:
		requirePath(path)
		dumpAST(path)

	case path != "":
		runFile(path)

	default:
		startREPL(*debugFlag, *nocolorFlag)
	}
}

func requirePath(path string) {
	if path == "" {
		fmt.Fprintln(os.Stderr, "a file path is required for this flag")
		os.Exit(1)
	}
}

func runFile(path string) {
	e := vm.New()
	if err := e.Import(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSource(name, src string) {
	e := vm.New()
	if err := e.ImportSource(name, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dumpTokens lexes path and prints its token stream one per line,
// indenting by the block depth Enter/Exit tokens establish so nested
// blocks are visually obvious without re-deriving indentation by hand.
func dumpTokens(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	l := lexer.New(string(src))
	depth := 0
	for {
		tok := l.NextToken()
		if tok.Type == token.Exit {
			depth--
		}
		indent := strings.Repeat("  ", max(depth, 0))
		if tok.Literal != "" {
			fmt.Printf("%s%s %q\n", indent, tok.Type, tok.Literal)
		} else {
			fmt.Printf("%s%s\n", indent, tok.Type)
		}
		switch tok.Type {
		case token.Enter:
			depth++
		case token.EOF:
			return
		}
	}
}

// dumpAST parses and rewrites path, then prints each top-level
// statement's String() form on its own line.
func dumpAST(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	l := lexer.New(string(src))
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	rewritten, errs := rewrite.Rewrite(prog)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		os.Exit(1)
	}

	for _, stmt := range rewritten.Statements {
		fmt.Println(stmt.String())
	}
}

func startREPL(debug, nocolor bool) {
	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}
	repl.Start(username, repl.Options{NoColor: nocolor, Debug: debug})
}
