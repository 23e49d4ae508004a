package dice

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The parse tree below mirrors the dice grammar:
//
//	command       = expr ("^" ("+"|"#")? number)? reason?
//	expr          = leaf (("+"|"-"|"*"|"/") leaf)*
//	leaf          = "(" expr ")" | ("+"|"-") (float|number) | float | dice | number
//	dice          = number? ("d"|"D") (number|"F"|"f") option* target_failure*
//	option        = ("e"|"ie"|"!"|"r"|"ir"|"K"|"k"|"D"|"d") number?
//	target_failure= ("t"|"tt"|"f") ("[" (number ("," number)*)? "]" | number)
//	reason        = ":" rest-of-input
//
// The tree is looser than the notation (optional option
// values, unbounded clause lists, a repeat suffix on any expression); build
// tightens it and reports the difference as a ParseError at the right offset.

var diceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Reason", Pattern: `:[\s\S]*`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]{1,2}`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Keyword", Pattern: `ie|ir|tt`},
	{Name: "Letter", Pattern: `[a-zA-Z]`},
	{Name: "Punct", Pattern: `[-+*/()^#\[\],!]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var treeParser = participle.MustBuild[commandNode](
	participle.Lexer(diceLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

type commandNode struct {
	Pos    lexer.Position
	Expr   *exprNode   `@@`
	Repeat *repeatNode `@@?`
	Reason *string     `@Reason?`
}

type repeatNode struct {
	Pos   lexer.Position
	Mode  string `"^" @("+" | "#")?`
	Times string `@Int`
}

type exprNode struct {
	Pos  lexer.Position
	Head *leafNode `@@`
	Tail []*opNode `@@*`
}

type opNode struct {
	Pos  lexer.Position
	Op   string    `@("+" | "-" | "*" | "/")`
	Leaf *leafNode `@@`
}

type leafNode struct {
	Pos    lexer.Position
	Group  *exprNode   `  "(" @@ ")"`
	Signed *signedNode `| @@`
	Float  *string     `| @Float`
	Dice   *diceNode   `| @@`
	Int    *string     `| @Int`
}

type signedNode struct {
	Sign  string  `@("+" | "-")`
	Float *string `( @Float`
	Int   *string `| @Int )`
}

type diceNode struct {
	Pos     lexer.Position
	Count   *string       `@Int?`
	Marker  string        `@("d" | "D")`
	Fudge   bool          `( @("F" | "f")`
	Sides   *string       `| @Int )`
	Options []*optionNode `@@*`
	Clauses []*clauseNode `@@*`
}

type optionNode struct {
	Pos   lexer.Position
	Kind  string  `@("ie" | "ir" | "e" | "!" | "r" | "K" | "k" | "D" | "d")`
	Value *string `@Int?`
}

type clauseNode struct {
	Pos   lexer.Position
	Kind  string    `@("tt" | "t" | "f")`
	List  *listNode `( @@`
	Value *string   `| @Int )`
}

type listNode struct {
	Values []string `"[" ( @Int ( "," @Int )* )? "]"`
}

// parseTree runs the grammar over src. Failures are returned as *ParseError.
func parseTree(src string) (*commandNode, error) {
	tree, err := treeParser.ParseString("", src)
	if err != nil {
		return nil, newParseError(err)
	}
	return tree, nil
}

func newParseError(err error) *ParseError {
	pe := &ParseError{Line: 1, Column: 1, Message: err.Error()}
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Offset, pe.Line, pe.Column = pos.Offset, pos.Line, pos.Column
		pe.Message = perr.Message()
	}
	var unexpected *participle.UnexpectedTokenError
	if errors.As(err, &unexpected) {
		pe.Expected = unexpected.Expect
	}
	return pe
}

func parseErrorAt(pos lexer.Position, expected, format string, args ...interface{}) *ParseError {
	pe := &ParseError{
		Offset:   pos.Offset,
		Line:     pos.Line,
		Column:   pos.Column,
		Expected: expected,
		Message:  fmt.Sprintf(format, args...),
	}
	if pe.Line == 0 {
		pe.Line = 1
	}
	if pe.Column == 0 {
		pe.Column = 1
	}
	return pe
}
