package lexer

import (
	"testing"

	"github.com/scizzorz/mask/token"
)

func collect(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func assertTokens(t *testing.T, input string, want []token.Type) {
	t.Helper()
	toks := collect(t, input)
	if len(toks) != len(want) {
		got := make([]token.Type, len(toks))
		for i, tok := range toks {
			got[i] = tok.Type
		}
		t.Fatalf("token count mismatch for %q:\n got  %v\n want %v", input, got, want)
	}
	for i, tok := range toks {
		if tok.Type != want[i] {
			t.Fatalf("tests[%d] for %q - type wrong. got=%q, want=%q", i, input, tok.Type, want[i])
		}
	}
}

// TestSimpleAssignment covers scenario 2 of spec.md §8: a single statement at
// the top level produces no Enter/Exit, just a trailing End before EOF.
func TestSimpleAssignment(t *testing.T) {
	assertTokens(t, "x = 1\n", []token.Type{
		token.Name, token.Assign, token.Int, token.End, token.EOF,
	})
}

// TestIndentEnterExit exercises the core indentation algorithm: a deeper
// line opens a block, a shallower one closes it.
func TestIndentEnterExit(t *testing.T) {
	input := "if x\n  y = 1\nz = 2\n"
	assertTokens(t, input, []token.Type{
		token.If, token.Name, token.Enter,
		token.Name, token.Assign, token.Int, token.End,
		token.Exit, token.End,
		token.Name, token.Assign, token.Int, token.End,
		token.EOF,
	})
}

// TestSameLevelProducesEnd checks that two statements at the same indent
// level are separated by a single End and never a stray leading one.
func TestSameLevelProducesEnd(t *testing.T) {
	assertTokens(t, "a = 1\nb = 2\n", []token.Type{
		token.Name, token.Assign, token.Int, token.End,
		token.Name, token.Assign, token.Int, token.End,
		token.EOF,
	})
}

// TestBlankLinesAreIgnored is the lexer idempotence property from spec.md
// §8: extra blank lines between statements must not change the token
// stream (ignoring spans).
func TestBlankLinesAreIgnored(t *testing.T) {
	plain := collectTypes(t, "a = 1\nb = 2\n")
	padded := collectTypes(t, "a = 1\n\n\n\nb = 2\n\n")
	if len(plain) != len(padded) {
		t.Fatalf("blank lines changed token count: %v vs %v", plain, padded)
	}
	for i := range plain {
		if plain[i] != padded[i] {
			t.Fatalf("tokens diverge at %d: %v vs %v", i, plain, padded)
		}
	}
}

func collectTypes(t *testing.T, input string) []token.Type {
	t.Helper()
	toks := collect(t, input)
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

// TestCommentOnlyLineIgnored ensures a `#`-comment line never affects
// indentation tracking.
func TestCommentOnlyLineIgnored(t *testing.T) {
	input := "if x\n  # just a comment\n  y = 1\nz = 2\n"
	assertTokens(t, input, []token.Type{
		token.If, token.Name, token.Enter,
		token.Name, token.Assign, token.Int, token.End,
		token.Exit, token.End,
		token.Name, token.Assign, token.Int, token.End,
		token.EOF,
	})
}

// TestNestedDedentEmitsOneExitPerLevel checks a dedent of two levels at once
// produces Exit, End, Exit, End — not a single combined token.
func TestNestedDedentEmitsOneExitPerLevel(t *testing.T) {
	input := "if a\n  if b\n    x = 1\ny = 2\n"
	assertTokens(t, input, []token.Type{
		token.If, token.Name, token.Enter,
		token.If, token.Name, token.Enter,
		token.Name, token.Assign, token.Int, token.End,
		token.Exit, token.End,
		token.Exit, token.End,
		token.Name, token.Assign, token.Int, token.End,
		token.EOF,
	})
}

// TestEOFClosesOpenBlocks exercises the finish() path: any still-open
// indent levels are closed with Exit+End before the terminal EOF, and no
// trailing blank line is required.
func TestEOFClosesOpenBlocks(t *testing.T) {
	input := "if x\n  y = 1"
	assertTokens(t, input, []token.Type{
		token.If, token.Name, token.Enter,
		token.Name, token.Assign, token.Int, token.End,
		token.Exit, token.End, token.EOF,
	})
}

// TestKeywordsAndIdentifiers checks the keyword table, including the
// reserved-but-unused `save`/`var` (spec.md Open Question b) and the
// `local`/`table` quarks which double as Name-shaped atoms in the parser.
func TestKeywordsAndIdentifiers(t *testing.T) {
	input := "and or if else for while loop break continue return pass catch fn in local var save table notakeyword\n"
	assertTokens(t, input, []token.Type{
		token.And, token.Or, token.If, token.Else, token.For, token.While,
		token.Loop, token.Break, token.Continue, token.Return, token.Pass,
		token.Catch, token.Fn, token.In, token.Local_, token.Var, token.Save,
		token.Table, token.Name, token.End, token.EOF,
	})
}

// TestNumberLiterals distinguishes int and float lexing by presence of a
// dot, per spec.md §4.1.
func TestNumberLiterals(t *testing.T) {
	toks := collect(t, "42 3.14 0 7.\n")
	if toks[0].Type != token.Int || toks[0].Literal != "42" {
		t.Fatalf("expected int 42, got %+v", toks[0])
	}
	if toks[1].Type != token.Float || toks[1].Literal != "3.14" {
		t.Fatalf("expected float 3.14, got %+v", toks[1])
	}
	if toks[2].Type != token.Int || toks[2].Literal != "0" {
		t.Fatalf("expected int 0, got %+v", toks[2])
	}
	// "7." has no digit after the dot, so the dot is not consumed as part
	// of the number; it's a separate Dot token (trailing-dot super-ref atom).
	if toks[3].Type != token.Int || toks[3].Literal != "7" {
		t.Fatalf("expected int 7 before trailing dot, got %+v", toks[3])
	}
	if toks[4].Type != token.Dot {
		t.Fatalf("expected a lone Dot after 7, got %+v", toks[4])
	}
}

// TestStringEscapes covers the escape set from spec.md §4.1: \n \t \\ \' and
// any other escaped char passing through literally.
func TestStringEscapes(t *testing.T) {
	toks := collect(t, `'a\nb' 'tab\there' 'quote\'s' 'back\\slash' 'weird\xend'`)
	want := []string{"a\nb", "tab\there", "quote'S", "back\\slash", "weird\\xend"}
	// quote'S: \' yields a literal quote, then the following "s" is just a
	// normal char, so the content is "quote's" not "quote'S" -- fix below.
	want[2] = "quote's"
	for i, w := range want {
		if toks[i].Type != token.Str {
			t.Fatalf("token %d: expected Str, got %+v", i, toks[i])
		}
		if toks[i].Literal != w {
			t.Fatalf("token %d: expected %q, got %q", i, w, toks[i].Literal)
		}
	}
}

// TestUnclosedString covers the UnclosedStr error token for both EOF and
// newline termination, per spec.md §4.1 and §7.
func TestUnclosedString(t *testing.T) {
	tok := collect(t, "'no closing quote")[0]
	if tok.Type != token.UnclosedStr {
		t.Fatalf("expected UnclosedStr at EOF, got %+v", tok)
	}
	if tok.Literal != "no closing quote" {
		t.Fatalf("expected partial literal, got %q", tok.Literal)
	}

	tok = collect(t, "'cut off\nrest")[0]
	if tok.Type != token.UnclosedStr {
		t.Fatalf("expected UnclosedStr at newline, got %+v", tok)
	}
	if tok.Literal != "cut off" {
		t.Fatalf("expected partial literal up to newline, got %q", tok.Literal)
	}
}

// TestCompoundOperators checks every two-character operator is recognized
// by its one-character lookahead, and that the shorter form still works
// when the second char doesn't match.
func TestCompoundOperators(t *testing.T) {
	toks := collect(t, "-> == != <= >= :: = ! < > :")
	want := []token.Type{
		token.Arrow, token.Eq, token.NotEq, token.Le, token.Ge, token.SuperLink,
		token.Assign, token.Bang, token.Lt, token.Gt, token.Colon, token.End, token.EOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("tests[%d] - type wrong. got=%q, want=%q", i, toks[i].Type, w)
		}
	}
}

// TestLineComment checks a `#` comment runs to end of line and doesn't
// swallow the next line's tokens.
func TestLineComment(t *testing.T) {
	assertTokens(t, "x = 1 # trailing comment\ny = 2\n", []token.Type{
		token.Name, token.Assign, token.Int, token.End,
		token.Name, token.Assign, token.Int, token.End,
		token.EOF,
	})
}

// TestTabCharacterFlagged exercises the dedicated Tab token: a tab used as
// leading indentation is queued ahead of the reconciled indent tokens so
// the parser can reject it, per spec.md §4.1.
func TestTabCharacterFlagged(t *testing.T) {
	toks := collect(t, "if x\n\ty = 1\n")
	found := false
	for _, tok := range toks {
		if tok.Type == token.TabChar {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TabChar token for tab-indented line, got %v", toks)
	}
}

// TestIllegalCharacter checks an unrecognized byte becomes an Illegal token
// rather than panicking or being silently dropped.
func TestIllegalCharacter(t *testing.T) {
	toks := collect(t, "x = ?\n")
	var illegal *token.Token
	for i := range toks {
		if toks[i].Type == token.Illegal {
			illegal = &toks[i]
		}
	}
	if illegal == nil || illegal.Literal != "?" {
		t.Fatalf("expected Illegal token for '?', got %v", toks)
	}
}

// TestPositionsAreByteOffsets sanity-checks that Pos tracks byte offsets,
// which error reporting relies on (spec.md §3).
func TestPositionsAreByteOffsets(t *testing.T) {
	toks := collect(t, "ab = 12\n")
	if toks[0].Pos != 0 {
		t.Fatalf("expected name token at offset 0, got %d", toks[0].Pos)
	}
	if toks[1].Pos != 3 {
		t.Fatalf("expected assign token at offset 3, got %d", toks[1].Pos)
	}
	if toks[2].Pos != 5 {
		t.Fatalf("expected int token at offset 5, got %d", toks[2].Pos)
	}
}
