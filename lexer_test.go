package main

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/fileinput"
)

type testNamedReader struct {
	*strings.Reader
	name string
}

func (r testNamedReader) Name() string { return r.name }

func newLexer(t *testing.T, src string) (*Lexer, *Table, *Data) {
	t.Helper()
	table := NewTable(64)
	seedKeywords(table)
	seedSyscalls(table)
	data := NewData(1 << 12)
	in := &fileinput.Input{Queue: []io.Reader{testNamedReader{strings.NewReader(src), "test.c"}}}
	return NewLexer(in, table, data), table, data
}

func tokens(t *testing.T, src string) []Tok {
	t.Helper()
	lx, _, _ := newLexer(t, src)
	var out []Tok
	for {
		require.NoError(t, lx.Next())
		if lx.Tok == tokEOF {
			return out
		}
		out = append(out, lx.Tok)
	}
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	lx, table, _ := newLexer(t, "int x; return foobar;")
	require.NoError(t, lx.Next())
	assert.Equal(t, tokInt, lx.Tok)

	require.NoError(t, lx.Next())
	assert.Equal(t, tokIdent, lx.Tok)
	sym := table.Get(lx.Sym)
	assert.Equal(t, "x", string(sym.Name))

	require.NoError(t, lx.Next())
	assert.EqualValues(t, ';', lx.Tok)

	require.NoError(t, lx.Next())
	assert.Equal(t, tokReturn, lx.Tok)

	require.NoError(t, lx.Next())
	assert.Equal(t, tokIdent, lx.Tok)
}

func TestLexerNumberBases(t *testing.T) {
	lx, _, _ := newLexer(t, "10 010 0x10")
	require.NoError(t, lx.Next())
	assert.Equal(t, 10, lx.Val)
	require.NoError(t, lx.Next())
	assert.Equal(t, 8, lx.Val)
	require.NoError(t, lx.Next())
	assert.Equal(t, 16, lx.Val)
}

func TestLexerStringLiteralAndEscape(t *testing.T) {
	lx, _, data := newLexer(t, `"a\nb"`)
	require.NoError(t, lx.Next())
	require.Equal(t, tokStr, lx.Tok)
	s, err := data.Memory().LoadCString(lx.Val)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(s))
}

func TestLexerCharLiteral(t *testing.T) {
	lx, _, _ := newLexer(t, `'a' '\n'`)
	require.NoError(t, lx.Next())
	assert.Equal(t, tokNum, lx.Tok)
	assert.Equal(t, int('a'), lx.Val)
	require.NoError(t, lx.Next())
	assert.Equal(t, tokNum, lx.Tok)
	assert.Equal(t, int('\n'), lx.Val)
}

// Single-byte operators that fall back (no second byte matched) must still
// yield their own dedicated token, not the raw ASCII byte, since the
// parser's precedence climbing compares against tokAssign..tokBrak (spec.md
// §4.4), not against punctuation byte values.
func TestLexerSingleCharOperatorsGetDedicatedTokens(t *testing.T) {
	toks := tokens(t, "= + - & | ^ % * [ ?")
	assert.Equal(t, []Tok{
		tokAssign, tokAdd, tokSub, tokAnd, tokOr, tokXor, tokMod, tokMul, tokBrak, tokCond,
	}, toks)
}

func TestLexerMultiCharOperators(t *testing.T) {
	toks := tokens(t, "== != <= >= && || << >> ++ --")
	assert.Equal(t, []Tok{
		tokEq, tokNe, tokLe, tokGe, tokLan, tokLor, tokShl, tokShr, tokInc, tokDec,
	}, toks)
}

// A lone '!' isn't followed by '=', so it must still fall through to the
// single-byte token rather than being silently dropped (spec.md §4.2's note
// on the original's own lookahead bug).
func TestLexerBareBangFallsThroughToSingleToken(t *testing.T) {
	toks := tokens(t, "! a")
	require.Len(t, toks, 2)
	assert.EqualValues(t, '!', toks[0])
	assert.Equal(t, tokIdent, toks[1])
}

func TestLexerCommentsAndPreprocessorLinesSkipped(t *testing.T) {
	toks := tokens(t, "#include <foo.h>\nint x; // trailing comment\nint y;")
	assert.Equal(t, []Tok{tokInt, tokIdent, ';', tokInt, tokIdent, ';'}, toks)
}

func TestLexerDivisionVsComment(t *testing.T) {
	toks := tokens(t, "a / b")
	assert.Equal(t, []Tok{tokIdent, tokDiv, tokIdent}, toks)
}

func TestLexerLineTracking(t *testing.T) {
	lx, _, _ := newLexer(t, "int\nx\n;")
	require.NoError(t, lx.Next())
	assert.Equal(t, 1, lx.Line())
	require.NoError(t, lx.Next())
	assert.Equal(t, 2, lx.Line())
	require.NoError(t, lx.Next())
	assert.Equal(t, 3, lx.Line())
}

func TestLexerUnknownByteFallsThroughAsItself(t *testing.T) {
	toks := tokens(t, "@")
	require.Len(t, toks, 1)
	assert.EqualValues(t, '@', toks[0])
}
