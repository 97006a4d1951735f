package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DescriptionMarkdown returns an issue description as markdown. The rich
// text body is converted when present; otherwise the plain-text body is
// escaped so it renders verbatim.
func DescriptionMarkdown(richHTML, plain string) string {
	if strings.TrimSpace(richHTML) != "" {
		if md, err := htmlToMarkdown(richHTML); err == nil && md != "" {
			return md
		}
	}
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return ""
	}
	lines := strings.Split(plain, "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(escapeInline(strings.TrimRight(line, " \t\r")))
	}
	return strings.Join(lines, "  \n")
}

func htmlToMarkdown(src string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeBlocks(&b, nodes)
	return tidyMarkdown(b.String()), nil
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Pre: true, atom.Blockquote: true, atom.Hr: true, atom.Table: true,
	atom.Thead: true, atom.Tbody: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// writeBlocks renders sibling nodes. Runs of inline nodes between blocks
// become paragraphs.
func writeBlocks(b *strings.Builder, nodes []*html.Node) {
	var run []*html.Node
	flush := func() {
		var p strings.Builder
		for _, n := range run {
			writeInline(&p, n)
		}
		run = run[:0]
		writeParagraph(b, p.String())
	}
	for _, n := range nodes {
		if !isBlock(n) {
			run = append(run, n)
			continue
		}
		flush()
		writeBlock(b, n)
	}
	flush()
}

func writeParagraph(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString(escapeLineStart(text))
	b.WriteString("\n\n")
}

func writeBlock(b *strings.Builder, n *html.Node) {
	switch n.DataAtom {
	case atom.P:
		var p strings.Builder
		for _, c := range children(n) {
			writeInline(&p, c)
		}
		writeParagraph(b, p.String())
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		var h strings.Builder
		for _, c := range children(n) {
			writeInline(&h, c)
		}
		if text := strings.TrimSpace(h.String()); text != "" {
			level := int(n.Data[1] - '0')
			b.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		}
	case atom.Ul, atom.Ol:
		writeList(b, n)
	case atom.Pre:
		lang := ""
		if code := n.FirstChild; code != nil && code.DataAtom == atom.Code {
			lang = strings.TrimPrefix(attr(code, "class"), "language-")
		}
		b.WriteString("```" + lang + "\n")
		b.WriteString(strings.TrimRight(textContent(n), "\n"))
		b.WriteString("\n```\n\n")
	case atom.Blockquote:
		var q strings.Builder
		writeBlocks(&q, children(n))
		if text := strings.TrimSpace(q.String()); text != "" {
			b.WriteString(prefixLines(text, "> ", "> ") + "\n\n")
		}
	case atom.Hr:
		b.WriteString("---\n\n")
	case atom.Tr:
		var cells []string
		for _, c := range children(n) {
			if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
				continue
			}
			var cell strings.Builder
			writeInline(&cell, c)
			cells = append(cells, strings.TrimSpace(cell.String()))
		}
		writeParagraph(b, strings.Join(cells, " | "))
	default:
		writeBlocks(b, children(n))
	}
}

// writeList renders one list level. Nested lists and continuation lines are
// indented under their item's marker.
func writeList(b *strings.Builder, n *html.Node) {
	tasks := attr(n, "data-type") == "taskList"
	number := 1
	var items []string
	for _, li := range children(n) {
		if li.DataAtom != atom.Li {
			continue
		}
		marker := "- "
		switch {
		case tasks && attr(li, "data-checked") == "true":
			marker = "- [x] "
		case tasks:
			marker = "- [ ] "
		case n.DataAtom == atom.Ol:
			marker = fmt.Sprintf("%d. ", number)
			number++
		}
		var item strings.Builder
		writeBlocks(&item, children(li))
		text := strings.TrimSpace(item.String())
		for strings.Contains(text, "\n\n") {
			text = strings.ReplaceAll(text, "\n\n", "\n")
		}
		items = append(items, prefixLines(text, marker, strings.Repeat(" ", len(marker))))
	}
	if len(items) > 0 {
		b.WriteString(strings.Join(items, "\n") + "\n\n")
	}
}

func writeInline(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(escapeInline(collapseSpace(n.Data)))
		return
	case html.ElementNode:
	default:
		return
	}
	inner := func() string {
		var s strings.Builder
		for _, c := range children(n) {
			writeInline(&s, c)
		}
		return s.String()
	}
	wrap := func(mark string) {
		if text := strings.TrimSpace(inner()); text != "" {
			b.WriteString(mark + text + mark)
		}
	}
	switch n.DataAtom {
	case atom.Strong, atom.B:
		wrap("**")
	case atom.Em, atom.I:
		wrap("_")
	case atom.S, atom.Del, atom.Strike:
		wrap("~~")
	case atom.Code:
		if text := textContent(n); text != "" {
			b.WriteString("`" + text + "`")
		}
	case atom.A:
		text := strings.TrimSpace(inner())
		href := attr(n, "href")
		switch {
		case href == "":
			b.WriteString(text)
		case text == "":
			b.WriteString("<" + href + ">")
		default:
			b.WriteString("[" + text + "](" + href + ")")
		}
	case atom.Img:
		if src := attr(n, "src"); src != "" {
			b.WriteString("![" + escapeInline(attr(n, "alt")) + "](" + src + ")")
		}
	case atom.Br:
		b.WriteString("  \n")
	default:
		b.WriteString(inner())
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for _, c := range children(n) {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeft(s, " \t\r\n") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n") != s {
		out += " "
	}
	return out
}

func prefixLines(text, first, rest string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = first + line
		case line != "":
			lines[i] = rest + line
		}
	}
	return strings.Join(lines, "\n")
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(s)
}

// escapeLineStart keeps text from opening a heading, list or quote.
func escapeLineStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '-', '+':
		return `\` + s
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + `\` + s[i:]
	}
	return s
}

func tidyMarkdown(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
