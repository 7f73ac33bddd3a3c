package translator

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// models is a pool an LLM-backed service draws from, one model per call.
type models []string

func (m models) pick() string {
	if len(m) == 0 {
		return ""
	}
	return m[rand.IntN(len(m))]
}

// systemPrompt is the instruction block shared by the LLM-backed services.
func systemPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional translator. Translate the user's text from %s to %s.\n",
		req.Source.Name(), req.Target.Name())
	sb.WriteString("Reply with the translation only: no explanations, no quotes, no notes.")
	sb.WriteString(" Keep placeholders such as ⟦0⟧ exactly as they are.")

	if req.Style != "" {
		sb.WriteString(" ")
		sb.WriteString(req.Style)
	}

	if len(req.Glossary) > 0 {
		terms := make([]string, 0, len(req.Glossary))
		for src := range req.Glossary {
			terms = append(terms, src)
		}
		sort.Strings(terms)

		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		for _, src := range terms {
			fmt.Fprintf(&sb, "  %s → %s\n", src, req.Glossary[src])
		}
	}

	return sb.String()
}
