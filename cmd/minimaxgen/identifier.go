package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"strings"
	"unicode"
)

// parseTypeExpr parses a type written in an annotation, e.g. "Box[Other]".
func parseTypeExpr(raw string) (ast.Expr, error) {
	expr, err := parser.ParseExpr(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid type expression %q:\n\t%w", raw, err)
	}
	return expr, nil
}

// renderIdentifier gives the identifier of a type expression, the way
// minimax.IdentifierOf derives it at runtime: qualifiers and pointers are
// dropped and type arguments are rendered with angle brackets.
func renderIdentifier(expr ast.Expr) (string, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, nil
	case *ast.StarExpr:
		return renderIdentifier(t.X)
	case *ast.ParenExpr:
		return renderIdentifier(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name, nil
	case *ast.IndexExpr:
		return renderGeneric(t.X, t.Index)
	case *ast.IndexListExpr:
		return renderGeneric(t.X, t.Indices...)
	case *ast.ArrayType:
		if t.Len != nil {
			return "", fmt.Errorf("array types cannot be services")
		}
		elt, err := renderIdentifier(t.Elt)
		if err != nil {
			return "", err
		}
		return "[]" + elt, nil
	case *ast.MapType:
		key, err := renderIdentifier(t.Key)
		if err != nil {
			return "", err
		}
		value, err := renderIdentifier(t.Value)
		if err != nil {
			return "", err
		}
		return "map[" + key + "]" + value, nil
	}
	return "", fmt.Errorf("unsupported type expression %T", expr)
}

func renderGeneric(base ast.Expr, params ...ast.Expr) (string, error) {
	name, err := renderIdentifier(base)
	if err != nil {
		return "", err
	}
	rendered := make([]string, len(params))
	for i, param := range params {
		if rendered[i], err = renderIdentifier(param); err != nil {
			return "", err
		}
	}
	return name + "<" + strings.Join(rendered, ", ") + ">", nil
}

// identifierVariable names the generated variable holding an identifier:
// "Box<Other>" gives "BoxOtherIdentifier", "[]Plugin" gives
// "SliceOfPluginIdentifier".
func identifierVariable(id string) string {
	id = strings.ReplaceAll(id, "[]", "SliceOf ")
	id = strings.ReplaceAll(id, "map[", "MapOf ")

	var b strings.Builder
	upperNext := true
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	b.WriteString("Identifier")
	return b.String()
}
