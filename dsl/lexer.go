package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// qdl 词法：颜色必须先于 # 注释匹配，长的十六进制形式优先。
var qdlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Newline", Pattern: `\n+`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})`},
	{Name: "HashComment", Pattern: `#[^\n]*`},
	{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%)?`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
})

var elided = []string{"Whitespace", "LineComment", "BlockComment", "HashComment"}

// tokenKinds caches the lexer's token types by role.
type tokenKinds struct {
	names   map[lexer.TokenType]string
	newline lexer.TokenType
	lbrace  lexer.TokenType
	rbrace  lexer.TokenType
	symbol  lexer.TokenType
	str     lexer.TokenType
}

var kinds = newTokenKinds(qdlLexer.Symbols())

func newTokenKinds(symbols map[string]lexer.TokenType) tokenKinds {
	k := tokenKinds{names: make(map[lexer.TokenType]string, len(symbols))}
	for name, tt := range symbols {
		k.names[tt] = name
	}
	lookup := func(name string) lexer.TokenType {
		tt, ok := symbols[name]
		if !ok {
			panic(fmt.Sprintf("qdl: token %s not defined", name))
		}
		return tt
	}
	k.newline = lookup("Newline")
	k.lbrace = lookup("LBrace")
	k.rbrace = lookup("RBrace")
	k.symbol = lookup("Symbol")
	k.str = lookup("String")
	return k
}

func (k tokenKinds) name(tt lexer.TokenType) string {
	if n, ok := k.names[tt]; ok {
		return n
	}
	return fmt.Sprintf("#%d", tt)
}

// nesting tracks open brackets while an expression is being read.
type nesting struct {
	paren, bracket int
}

func (n nesting) flat() bool { return n.paren == 0 && n.bracket == 0 }

func (n *nesting) track(raw string) {
	switch raw {
	case "(":
		n.paren++
	case ")":
		n.paren = max(n.paren-1, 0)
	case "[":
		n.bracket++
	case "]":
		n.bracket = max(n.bracket-1, 0)
	}
}

// ends reports whether tok closes the expression at the current nesting.
func (n nesting) ends(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case kinds.newline, kinds.lbrace, kinds.rbrace:
		return n.flat()
	case kinds.symbol:
		switch tok.Value {
		case ";", ",":
			return n.flat()
		case "]":
			return n.bracket == 0
		}
	}
	return false
}

// endsArgs reports whether tok terminates a command's argument list.
func endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case kinds.newline, kinds.lbrace, kinds.rbrace:
		return true
	case kinds.symbol:
		return tok.Value == ";"
	}
	return false
}

// Lexeme is a single token kept verbatim for command arguments and expressions.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse makes Lexeme a grammar atom.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsArgs(lex.Peek()) {
		return participle.NextMatch
	}
	next, err := nextLexeme(lex)
	if err != nil {
		return err
	}
	*l = next
	return nil
}

// Expression is an unevaluated token run, eg. a data path on the right of an assignment.
type Expression struct {
	Parts []*Lexeme
}

// Parse implements participle.Parseable.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var depth nesting
	for !depth.ends(lex.Peek()) {
		lx, err := nextLexeme(lex)
		if err != nil {
			return err
		}
		depth.track(lx.Raw)
		e.Parts = append(e.Parts, &lx)
	}
	if len(e.Parts) == 0 {
		return participle.NextMatch
	}
	return nil
}

// String concatenates the token values, so `data.meta.subject` reads back unchanged.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range e.Parts {
		sb.WriteString(p.Value)
	}
	return sb.String()
}

func nextLexeme(lex *lexer.PeekingLexer) (Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return Lexeme{}, participle.NextMatch
	}
	val := tok.Value
	if tok.Type == kinds.str {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		val = unquoted
	}
	return Lexeme{Type: kinds.name(tok.Type), Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量为空")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}
