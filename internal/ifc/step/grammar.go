package step

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var stepLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Ref", Pattern: `#\d+`},
	{Name: "Enum", Pattern: `\.[A-Za-z_][A-Za-z0-9_]*\.`},
	{Name: "Binary", Pattern: `"[0-9A-Fa-f]*"`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d*(?:[eE][-+]?\d+)?`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "Section", Pattern: `(?:END-ISO-10303-21|ISO-10303-21|HEADER|DATA|ENDSEC)\b`},
	{Name: "Keyword", Pattern: `[A-Za-z_][A-Za-z0-9_\-]*`},
	{Name: "Punct", Pattern: `[=();,$*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var stepParser = participle.MustBuild[exchangeFile](
	participle.Lexer(stepLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

type exchangeFile struct {
	Header []*record      `parser:"'ISO-10303-21' ';' 'HEADER' ';' ( @@ ';' )* 'ENDSEC' ';'"`
	Data   []*dataSection `parser:"@@+"`
	End    bool           `parser:"@'END-ISO-10303-21' ';'"`
}

type dataSection struct {
	Params    *paramList  `parser:"'DATA' @@? ';'"`
	Instances []*instance `parser:"@@* 'ENDSEC' ';'"`
}

type instance struct {
	Pos     lexer.Position
	Ref     string    `parser:"@Ref '='"`
	Simple  *record   `parser:"( @@"`
	Complex []*record `parser:"| '(' @@+ ')' ) ';'"`
}

type record struct {
	Type   string     `parser:"@Keyword"`
	Params *paramList `parser:"@@"`
}

type paramList struct {
	Items []*param `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

type param struct {
	String  *string    `parser:"  @String"`
	Unset   bool       `parser:"| @'$'"`
	Derived bool       `parser:"| @'*'"`
	Enum    *string    `parser:"| @Enum"`
	Ref     *string    `parser:"| @Ref"`
	Real    *float64   `parser:"| @Float"`
	Int     *int64     `parser:"| @Int"`
	Binary  *string    `parser:"| @Binary"`
	List    *paramList `parser:"| @@"`
	Typed   *record    `parser:"| @@"`
}
