package main

// Tok is a lexer token. Values below 128 are literal single-byte operators
// and punctuation returned as-is (spec.md §4.2: "unknown bytes are silently
// returned as-is"). Values at or above tokNum are the closed set named by
// spec.md §3/§6, laid out so that the operator tokens from tokAssign through
// tokBrak increase strictly with precedence: the parser's expr(level) loop
// compares the current token against a minimum level directly.
type Tok int

const tokEOF Tok = 0

const (
	tokNum Tok = 128 + iota
	tokFun
	tokSys
	tokGlo
	tokLoc
	tokIdent
	tokStr

	// keywords
	tokChar
	tokElse
	tokEnum
	tokIf
	tokInt
	tokReturn
	tokSizeof
	tokVoid
	tokWhile

	// operators, strictly ascending precedence order (spec.md §4.4)
	tokAssign
	tokCond
	tokLor
	tokLan
	tokOr
	tokXor
	tokAnd
	tokEq
	tokNe
	tokLt
	tokGt
	tokLe
	tokGe
	tokShl
	tokShr
	tokAdd
	tokSub
	tokMul
	tokDiv
	tokMod
	tokInc
	tokDec
	tokBrak
)

// keywords is the fixed closed set of reserved words (spec.md §6), mapping
// each to its token. void lexes as tokChar, so it is accepted wherever char
// is and types as CHAR.
var keywords = []struct {
	name string
	tok  Tok
}{
	{"char", tokChar},
	{"else", tokElse},
	{"enum", tokEnum},
	{"if", tokIf},
	{"int", tokInt},
	{"return", tokReturn},
	{"sizeof", tokSizeof},
	{"void", tokChar},
	{"while", tokWhile},
}

// isTypeKeyword reports whether tok starts a base-type production, and the
// Type it denotes. void is aliased to CHAR, preserving the source's typing
// behavior per spec.md §9's Open Question rather than diagnosing it.
func isTypeKeyword(tok Tok) (Type, bool) {
	switch tok {
	case tokInt:
		return Type{Base: INT}, true
	case tokChar, tokVoid:
		return Type{Base: CHAR}, true
	}
	return Type{}, false
}
