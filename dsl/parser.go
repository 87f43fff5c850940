// Package dsl parses quire documents (.qdl) into an untyped syntax tree.
// Element semantics live in package document.
package dsl

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var documentParser = participle.MustBuild[Document](
	participle.Lexer(qdlLexer),
	participle.Elide(elided...),
)

// SyntaxError reports where a document failed to parse.
type SyntaxError struct {
	File string
	Pos  lexer.Position
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s 第 %d 行第 %d 列: %s", e.File, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("第 %d 行第 %d 列: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parse parses a document read from r; name only labels error positions.
func Parse(name string, r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse(name, r)
	return doc, syntaxError(name, err)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	return doc, syntaxError("", err)
}

// ParseFile opens and parses path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开文档 %s: %w", path, err)
	}
	defer f.Close()
	return Parse(path, f)
}

func syntaxError(file string, err error) error {
	if err == nil {
		return nil
	}
	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{File: file, Pos: perr.Position(), Msg: perr.Message()}
	}
	return err
}
