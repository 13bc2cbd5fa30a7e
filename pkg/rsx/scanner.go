package rsx

import (
	"go/scanner"
	"go/token"
)

// item is one markup token.
type item struct {
	pos token.Pos
	tok token.Token
	lit string
}

// scan tokenizes markup with the Go scanner. Markup punctuation (<, />, </,
// {...}) is a subset of Go's, so expression blocks tokenize exactly as the
// compiler will see them. Automatically inserted semicolons are dropped.
func scan(fset *token.FileSet, filename string, src []byte) (*token.File, []item, error) {
	file := fset.AddFile(filename, -1, len(src))

	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) { errs.Add(pos, msg) }, 0)

	var items []item
	for {
		pos, tok, lit := s.Scan()
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		items = append(items, item{pos: pos, tok: tok, lit: lit})
		if tok == token.EOF {
			break
		}
	}
	if len(errs) > 0 {
		return file, nil, newError(ParseError, errs[0].Pos, "%s", errs[0].Msg)
	}
	return file, items, nil
}

func (it item) String() string {
	switch {
	case it.tok == token.EOF:
		return "end of markup"
	case it.lit != "":
		return it.lit
	default:
		return it.tok.String()
	}
}
