// Package jsvalidate syntax-checks execute-js/evaluate-js scripts before
// they ever reach the page capability, per spec.md §4.4: a malformed
// script surfaces as a ParseError instead of failing opaquely partway
// through the browser.
package jsvalidate

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Validate parses script with the JavaScript grammar and reports the
// first syntax error found, or nil if the script parses cleanly.
func Validate(script string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(script))
	if err != nil {
		return fmt.Errorf("js parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if n := firstErrorNode(root); n != nil {
		return fmt.Errorf("js syntax error at byte offset %d: %q", n.StartByte(), nodeSnippet(script, n))
	}
	return fmt.Errorf("js syntax error")
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func nodeSnippet(script string, n *sitter.Node) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if start < 0 || end > len(script) || start > end {
		return ""
	}
	const maxLen = 40
	s := script[start:end]
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
