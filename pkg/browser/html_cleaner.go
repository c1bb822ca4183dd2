package browser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Cleaned is a page reduced to its semantic markup.
type Cleaned struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

var (
	skippedElements = set("head", "script", "style", "noscript", "template", "iframe", "embed", "object", "svg", "canvas")
	blockElements   = set("div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "figure", "figcaption", "details", "summary", "dl", "dt", "dd")
	voidElements     = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "param", "source", "track", "wbr")
	globalAttributes = set("id", "class", "role", "name", "title", "aria-label", "aria-describedby")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// CleanHTML strips scripts, styles, comments and presentational attributes,
// keeping the structure and the attributes useful for targeting elements.
// A positive limit caps the output at roughly that many characters.
func CleanHTML(raw string, limit int) (*Cleaned, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c := &cleaner{limit: limit}
	c.node(doc, 0)
	return &Cleaned{
		HTML:        strings.TrimSpace(c.b.String()),
		Title:       pageTitle(doc),
		Description: metaDescription(doc),
		Truncated:   c.truncated,
	}, nil
}

type cleaner struct {
	b         strings.Builder
	written   int
	limit     int
	truncated bool
}

func (c *cleaner) node(n *html.Node, depth int) {
	if c.truncated {
		return
	}
	if c.limit > 0 && c.written >= c.limit {
		c.truncated = true
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
	case html.TextNode:
		c.text(n.Data)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if !skippedElements[tag] {
			c.element(n, tag, depth)
		}
	default:
		c.children(n, depth)
	}
}

func (c *cleaner) children(n *html.Node, depth int) {
	for child := n.FirstChild; child != nil && !c.truncated; child = child.NextSibling {
		c.node(child, depth)
	}
}

func (c *cleaner) text(data string) {
	text := strings.TrimSpace(data)
	if text == "" {
		return
	}

	n := utf8.RuneCountInString(text)
	if c.limit > 0 && c.written+n > c.limit {
		text = string([]rune(text)[:c.limit-c.written]) + "..."
		c.truncated = true
		n = c.limit - c.written
	}
	c.b.WriteString(text)
	c.written += n
}

func (c *cleaner) element(n *html.Node, tag string, depth int) {
	block := blockElements[tag]
	if depth > 0 && block {
		c.b.WriteString("\n" + strings.Repeat("  ", depth))
	}

	c.b.WriteString("<" + tag)
	for _, a := range n.Attr {
		if keepAttribute(tag, a.Key) {
			fmt.Fprintf(&c.b, ` %s="%s"`, a.Key, html.EscapeString(a.Val))
		}
	}
	c.b.WriteString(">")
	c.written += len(tag) + 2

	c.children(n, depth+1)

	if voidElements[tag] {
		return
	}
	if block {
		c.b.WriteString("\n" + strings.Repeat("  ", depth))
	}
	c.b.WriteString("</" + tag + ">")
	c.written += len(tag) + 3
}

func keepAttribute(tag, key string) bool {
	key = strings.ToLower(key)
	if globalAttributes[key] || strings.HasPrefix(key, "data-") {
		return true
	}

	switch tag {
	case "a":
		return key == "href" || key == "target"
	case "img":
		return key == "src" || key == "alt"
	case "input", "textarea", "select", "option":
		return key == "type" || key == "placeholder" || key == "value"
	case "button":
		return key == "type"
	case "form":
		return key == "action" || key == "method"
	case "label":
		return key == "for"
	case "table":
		return key == "summary"
	}
	return false
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
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
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func pageTitle(doc *html.Node) string {
	if t := findElement(doc, "title"); t != nil {
		return strings.TrimSpace(textContent(t))
	}
	return ""
}

func metaDescription(doc *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" && strings.EqualFold(attr(n, "name"), "description") {
			found = strings.TrimSpace(attr(n, "content"))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// Markdown renders a page as Markdown, headed by its title.
func Markdown(raw string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var b strings.Builder
	if title := pageTitle(doc); title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	b.WriteString(renderChildren(root, 0))
	return tidy(b.String()), nil
}

func renderChildren(n *html.Node, listDepth int) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(render(c, listDepth))
	}
	return b.String()
}

func render(n *html.Node, listDepth int) string {
	switch n.Type {
	case html.TextNode:
		return collapseSpace(n.Data)
	case html.ElementNode:
	default:
		return renderChildren(n, listDepth)
	}

	tag := strings.ToLower(n.Data)
	if skippedElements[tag] {
		return ""
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := inline(n, listDepth)
		if text == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", int(tag[1]-'0')) + " " + text + "\n\n"
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "a":
		text, href := inline(n, listDepth), attr(n, "href")
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return text
		}
		if text == "" {
			text = href
		}
		return "[" + text + "](" + href + ")"
	case "img":
		if src := attr(n, "src"); src != "" {
			return "![" + attr(n, "alt") + "](" + src + ")"
		}
		return ""
	case "strong", "b":
		return wrap(inline(n, listDepth), "**")
	case "em", "i":
		return wrap(inline(n, listDepth), "_")
	case "code":
		return wrap(inline(n, listDepth), "`")
	case "pre":
		return "\n\n```\n" + strings.Trim(textContent(n), "\n") + "\n```\n\n"
	case "ul", "ol":
		return renderList(n, tag == "ol", listDepth)
	case "li":
		return "\n- " + strings.TrimSpace(renderChildren(n, listDepth+1))
	case "blockquote":
		inner := tidy(renderChildren(n, listDepth))
		return "\n\n> " + strings.ReplaceAll(inner, "\n", "\n> ") + "\n\n"
	case "table":
		return "\n\n" + renderTable(n) + "\n\n"
	}

	if blockElements[tag] {
		return "\n\n" + renderChildren(n, listDepth) + "\n\n"
	}
	return renderChildren(n, listDepth)
}

func inline(n *html.Node, listDepth int) string {
	return strings.Join(strings.Fields(renderChildren(n, listDepth)), " ")
}

func wrap(text, marker string) string {
	if text == "" {
		return ""
	}
	return marker + text + marker
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

func renderList(n *html.Node, ordered bool, listDepth int) string {
	indent := strings.Repeat("  ", listDepth)
	var b strings.Builder
	i := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || strings.ToLower(c.Data) != "li" {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(i) + ". "
		}
		i++
		b.WriteString("\n" + indent + marker + strings.TrimSpace(renderChildren(c, listDepth+1)))
	}
	if listDepth == 0 {
		return "\n" + b.String() + "\n\n"
	}
	return b.String()
}

func renderTable(table *html.Node) string {
	var rows [][]string
	header := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch strings.ToLower(c.Data) {
			case "table":
				// nested tables are flattened into their cell
			case "tr":
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode {
						continue
					}
					if name := strings.ToLower(cell.Data); name == "td" || name == "th" {
						if name == "th" && len(rows) == 0 {
							header = true
						}
						cells = append(cells, strings.ReplaceAll(inline(cell, 0), "|", `\|`))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			default:
				walk(c)
			}
		}
	}
	walk(table)
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for i, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 && header {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

var listItem = regexp.MustCompile(`^(\d+\.|-) `)

// tidy trims each line and squeezes runs of blank lines into one.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank, fenced := true, false
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			fenced = !fenced
		}
		if fenced && !strings.HasPrefix(line, "```") {
			out = append(out, line)
			blank = false
			continue
		}
		line = strings.TrimRight(line, " \t")
		if trimmed := strings.TrimLeft(line, " "); !listItem.MatchString(trimmed) {
			line = trimmed
		}
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
