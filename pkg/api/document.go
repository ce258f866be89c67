package api

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Document is a parsed single-operation GraphQL document.
type Document struct {
	Name string
	Op   ast.Operation
	Text string
}

// ParseDocument checks text for syntax and requires exactly one named
// operation.
func ParseDocument(text string) (Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "operation", Input: text})
	if err != nil {
		return Document{}, fmt.Errorf("api: parse document: %w", err)
	}
	if len(doc.Operations) != 1 {
		return Document{}, fmt.Errorf("api: document has %d operations, want 1", len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Name == "" {
		return Document{}, fmt.Errorf("api: document operation is anonymous")
	}
	return Document{Name: op.Name, Op: op.Operation, Text: text}, nil
}

// MustParse is ParseDocument for package-level documents.
func MustParse(text string) Document {
	d, err := ParseDocument(text)
	if err != nil {
		panic(err)
	}
	return d
}
