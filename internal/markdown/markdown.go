// Package markdown renders generated answers for the HTTP API.
package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const extensions = parser.CommonExtensions | parser.Attributes

// ToHTML renders answer as HTML. Raw HTML in the answer is dropped, since
// it comes from a model and a translation service.
func ToHTML(answer string) string {
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank | html.SkipHTML,
	})
	doc := parser.NewWithExtensions(extensions).Parse([]byte(answer))
	return string(markdown.Render(doc, renderer))
}

// ToPlainText strips markdown syntax, keeping one line per block.
func ToPlainText(answer string) string {
	doc := parser.NewWithExtensions(extensions).Parse([]byte(answer))

	var sb strings.Builder
	newline := func() {
		if s := sb.String(); s != "" && !strings.HasSuffix(s, "\n") {
			sb.WriteString("\n")
		}
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Text:
			if entering {
				sb.Write(n.Literal)
			}
		case *ast.Code:
			if entering {
				sb.Write(n.Literal)
			}
		case *ast.CodeBlock:
			if entering {
				newline()
				sb.Write(n.Literal)
				newline()
			}
		case *ast.Softbreak, *ast.Hardbreak:
			if entering {
				sb.WriteString("\n")
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem:
			if !entering {
				newline()
			}
		}
		return ast.GoToNext
	})

	return strings.TrimSpace(sb.String())
}
