package property

import (
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/agentstation/alloymap/pkg/errors"
)

// numericLiterals collects the source text of every numeric trait scalar in
// a property map document, keyed by alloy then trait. YAML accepts forms
// such as 0x10, 0o17, 1_000 and .inf that ParseNumeric does not, so the
// decoded value is rebuilt from this text.
func numericLiterals(data []byte) (map[string]map[string]string, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}

	out := make(map[string]map[string]string)
	for _, doc := range file.Docs {
		if doc == nil {
			continue
		}
		alloys, ok := doc.Body.(ast.MapNode)
		if !ok {
			continue
		}
		iter := alloys.MapRange()
		for iter.Next() {
			traits, ok := iter.Value().(ast.MapNode)
			if !ok {
				continue
			}
			alloy := nodeText(iter.Key())
			inner := traits.MapRange()
			for inner.Next() {
				lit, ok := numericLiteral(inner.Value())
				if !ok {
					continue
				}
				if out[alloy] == nil {
					out[alloy] = make(map[string]string)
				}
				out[alloy][nodeText(inner.Key())] = lit
			}
		}
	}
	return out, nil
}

func numericLiteral(n ast.Node) (string, bool) {
	switch n.(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.InfinityNode, *ast.NanNode:
		if tk := n.GetToken(); tk != nil {
			return tk.Value, true
		}
	}
	return "", false
}

func nodeText(n ast.Node) string {
	if n == nil {
		return ""
	}
	if tk := n.GetToken(); tk != nil {
		return tk.Value
	}
	return n.String()
}

// literalValue applies the single numeric policy to a YAML number literal.
func literalValue(lit string) Value {
	if f, err := ParseNumeric(Text(lit)); err == nil {
		return Number(f)
	}
	return Text(lit)
}
