package main

import (
	"io"
	"strconv"

	"github.com/minic-lang/minic/internal/fileinput"
)

// Lexer converts source bytes into a stream of tokens (C2), computing
// identifier hashes and literal values as it goes. It consumes an
// fileinput.Input so that every diagnostic can carry a 1-based line number
// (diagnostics do not include the file name) without the lexer needing to know anything about
// os.File (spec.md's "source provider" is treated as an opaque collaborator,
// §1).
type Lexer struct {
	in    *fileinput.Input
	table *Table
	data  *Data

	Tok Tok
	Val int
	Sym Handle

	peeked rune
	havePeek bool
}

// NewLexer wraps a source reader for tokenizing, sharing the compiler's
// symbol table and data segment.
func NewLexer(in *fileinput.Input, table *Table, data *Data) *Lexer {
	return &Lexer{in: in, table: table, data: data}
}

// Line returns the 1-based line number of the line currently being scanned,
// for diagnostics (spec.md §7: "<line>: <message>"). A newline read only as
// one-rune lookahead past the last token does not count yet.
func (lx *Lexer) Line() int {
	if lx.havePeek && lx.peeked == '\n' {
		return lx.in.Scan.Line - 1
	}
	return lx.in.Scan.Line
}

// SourceLine returns the raw text scanned so far on the current line (the
// line Line reports), for the -s mode's source-annotated diagnostics
// (SPEC_FULL.md §5).
func (lx *Lexer) SourceLine() string {
	if lx.havePeek && lx.peeked == '\n' {
		return lx.in.Last.Buffer.String()
	}
	return lx.in.Scan.Buffer.String()
}

func (lx *Lexer) readRune() (rune, error) {
	if lx.havePeek {
		lx.havePeek = false
		return lx.peeked, nil
	}
	r, _, err := lx.in.ReadRune()
	return r, err
}

func (lx *Lexer) unreadRune(r rune) {
	lx.peeked = r
	lx.havePeek = true
}

// Next advances the token stream, setting Tok/Val/Sym. Running off the end
// of input yields tokEOF repeatedly rather than an error; unterminated
// identifiers/numbers/strings are not separately diagnosed here, per
// spec.md §4.2 — that is the parser's job.
func (lx *Lexer) Next() error {
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			lx.Tok, lx.Val, lx.Sym = tokEOF, 0, 0
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case r == '#':
			if err := lx.skipLine(); err != nil && err != io.EOF {
				return err
			}
			continue
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			continue
		case isIdentStart(r):
			return lx.scanIdent(r)
		case r >= '0' && r <= '9':
			return lx.scanNumber(r)
		case r == '"':
			return lx.scanString()
		case r == '\'':
			return lx.scanChar()
		case r == '/':
			r2, err := lx.readRune()
			if err == nil && r2 == '/' {
				if err := lx.skipLine(); err != nil && err != io.EOF {
					return err
				}
				continue
			}
			if err == nil {
				lx.unreadRune(r2)
			}
			lx.Tok, lx.Val, lx.Sym = tokDiv, 0, 0
			return nil
		default:
			return lx.scanOperator(r)
		}
	}
}

func (lx *Lexer) skipLine() error {
	for {
		r, err := lx.readRune()
		if err != nil {
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func (lx *Lexer) scanIdent(first rune) error {
	name := []byte{byte(first)}
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !isIdentCont(r) {
			lx.unreadRune(r)
			break
		}
		name = append(name, byte(r))
	}

	hash := hashIdent(name)
	h := lx.table.Intern(name, hash)
	sym := lx.table.Get(h)
	if sym.Kind == KindKeyword {
		lx.Tok, lx.Val, lx.Sym = Tok(sym.Value), 0, 0
		return nil
	}
	lx.Tok, lx.Val, lx.Sym = tokIdent, 0, h
	return nil
}

func (lx *Lexer) scanNumber(first rune) error {
	digits := []byte{byte(first)}
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !isIdentCont(r) { // digits, letters (for hex) all collected raw
			lx.unreadRune(r)
			break
		}
		digits = append(digits, byte(r))
	}

	s := string(digits)
	var v int64
	var err error
	switch {
	case len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case len(s) > 1 && s[0] == '0':
		v, err = strconv.ParseInt(s[1:], 8, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		v = 0
	}
	lx.Tok, lx.Val, lx.Sym = tokNum, int(v), 0
	return nil
}

// scanString scans through the closing quote, honoring only \n as a
// recognized escape (spec.md §4.2): any other escape yields the escaped
// byte unchanged. The bytes are copied into the data segment immediately;
// concatenation of adjacent string tokens is the parser's job.
func (lx *Lexer) scanString() error {
	var raw []byte
	for {
		r, err := lx.readRune()
		if err == io.EOF || r == '"' {
			break
		}
		if err != nil {
			return err
		}
		if r == '\\' {
			r2, err := lx.readRune()
			if err != nil && err != io.EOF {
				return err
			}
			if r2 == 'n' {
				raw = append(raw, '\n')
			} else {
				raw = append(raw, byte(r2))
			}
			continue
		}
		raw = append(raw, byte(r))
	}
	addr, err := lx.data.AppendString(raw)
	if err != nil {
		return err
	}
	lx.Tok, lx.Val, lx.Sym = tokStr, addr, 0
	return nil
}

// scanChar scans a char literal the same way as a string, but delivers the
// single resulting byte as a numeric literal and appends nothing to the
// data segment.
func (lx *Lexer) scanChar() error {
	r, err := lx.readRune()
	if err != nil && err != io.EOF {
		return err
	}
	var v byte
	if r == '\\' {
		r2, err := lx.readRune()
		if err != nil && err != io.EOF {
			return err
		}
		if r2 == 'n' {
			v = '\n'
		} else {
			v = byte(r2)
		}
	} else {
		v = byte(r)
	}
	if closing, err := lx.readRune(); err != nil && err != io.EOF {
		return err
	} else if closing != '\'' {
		lx.unreadRune(closing)
	}
	lx.Tok, lx.Val, lx.Sym = tokNum, int(v), 0
	return nil
}

// multiCharOps lists operators whose meaning depends on whether a second
// byte follows (spec.md §4.2). single is the token assigned when the
// second byte does not match (0 means: fall through and emit the byte
// itself — the lexer's documented '!' quirk, spec.md §9's Open Question).
var multiCharOps = map[rune]struct {
	second rune
	double Tok
	single Tok
}{
	'=': {'=', tokEq, tokAssign},
	'!': {'=', tokNe, 0},
	'&': {'&', tokLan, tokAnd},
	'|': {'|', tokLor, tokOr},
	'+': {'+', tokInc, tokAdd},
	'-': {'-', tokDec, tokSub},
}

// singleCharOps lists operators that are always a single byte but still
// need their own token (not the raw byte value) so the parser's precedence
// climbing can compare them against tokAssign..tokBrak (spec.md §4.4).
var singleCharOps = map[rune]Tok{
	'^': tokXor,
	'%': tokMod,
	'*': tokMul,
	'[': tokBrak,
	'?': tokCond,
}

func (lx *Lexer) scanOperator(r rune) error {
	switch r {
	case '<':
		r2, err := lx.readRune()
		if err == nil {
			switch r2 {
			case '=':
				lx.Tok = tokLe
				return nil
			case '<':
				lx.Tok = tokShl
				return nil
			}
			lx.unreadRune(r2)
		}
		lx.Tok = tokLt
		return nil
	case '>':
		r2, err := lx.readRune()
		if err == nil {
			switch r2 {
			case '=':
				lx.Tok = tokGe
				return nil
			case '>':
				lx.Tok = tokShr
				return nil
			}
			lx.unreadRune(r2)
		}
		lx.Tok = tokGt
		return nil
	}

	if pair, ok := multiCharOps[r]; ok {
		r2, err := lx.readRune()
		if err == nil && r2 == pair.second {
			lx.Tok, lx.Val, lx.Sym = pair.double, 0, 0
			return nil
		}
		if err == nil {
			lx.unreadRune(r2)
		}
		if pair.single != 0 {
			lx.Tok, lx.Val, lx.Sym = pair.single, 0, 0
			return nil
		}
		lx.Tok, lx.Val, lx.Sym = Tok(r), 0, 0
		return nil
	}

	if tok, ok := singleCharOps[r]; ok {
		lx.Tok, lx.Val, lx.Sym = tok, 0, 0
		return nil
	}

	lx.Tok, lx.Val, lx.Sym = Tok(r), 0, 0
	return nil
}
