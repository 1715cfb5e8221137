package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// SpecGroup is every part name a spec table lists under one category.
type SpecGroup struct {
	Category string
	Parts    []string
}

// Spec is the category to part-name mapping of one spec table, in the
// order categories first appear.
type Spec []SpecGroup

// Parts returns the part names listed under category.
func (s Spec) Parts(category string) []string {
	for _, g := range s {
		if g.Category == category {
			return g.Parts
		}
	}
	return nil
}

// Lines counts every part name across all groups.
func (s Spec) Lines() int {
	n := 0
	for _, g := range s {
		n += len(g.Parts)
	}
	return n
}

func (s *Spec) add(category, part string) {
	for i := range *s {
		if (*s)[i].Category == category {
			(*s)[i].Parts = append((*s)[i].Parts, part)
			return
		}
	}
	*s = append(*s, SpecGroup{Category: category, Parts: []string{part}})
}

var specLabels = map[string]string{
	"processor":        "CPU",
	"cpu":              "CPU",
	"system board":     "Motherboard",
	"motherboard":      "Motherboard",
	"mainboard":        "Motherboard",
	"ram":              "Memory",
	"memory":           "Memory",
	"storage":          "Storage",
	"ssd":              "Storage",
	"hard drive":       "Storage",
	"graphics card":    "Graphics Card",
	"graphics":         "Graphics Card",
	"video card":       "Graphics Card",
	"gpu":              "Graphics Card",
	"case":             "Case",
	"chassis":          "Case",
	"power supply":     "Power Supply",
	"psu":              "Power Supply",
	"optical drive":    "Optical Drive",
	"cooler":           "Cooler",
	"cpu cooler":       "Cooler",
	"fans":             "Fans",
	"fan":              "Fans",
	"operating system": "Operating System",
	"os":               "Operating System",
}

var specSkip = map[string]bool{
	"system status": true,
	"tech support":  true,
	"warranty":      true,
}

var (
	driveLabel = regexp.MustCompile(`^drive\s*\d+$`)
	fanLabel   = regexp.MustCompile(`^fans?\s*\d+$`)
)

var trademarks = strings.NewReplacer("®", "", "™", "", "℠", "")

// CategoryForLabel maps a spec-table label to its part category. It
// reports false for unknown and skipped labels.
func CategoryForLabel(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSuffix(cleanText(label), ":"))
	key = strings.TrimSpace(key)
	if specSkip[key] {
		return "", false
	}
	if cat, ok := specLabels[key]; ok {
		return cat, true
	}
	switch {
	case driveLabel.MatchString(key):
		return "Storage", true
	case fanLabel.MatchString(key):
		return "Fans", true
	}
	return "", false
}

// cleanText strips trademark glyphs and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(trademarks.Replace(s)), " ")
}

func isPlaceholder(v string) bool {
	switch strings.ToLower(v) {
	case "", "n/a", "na", "none", "-":
		return true
	}
	return false
}

// ExtractSpecTable reads label/value rows out of an HTML fragment. Rows
// need at least two cells: the first is the label, the rest joined form
// the value. Missing tables and broken markup give an empty Spec.
func ExtractSpecTable(fragment string) Spec {
	var spec Spec
	if !strings.Contains(fragment, "<") {
		return spec
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return spec
	}

	for _, tr := range findAll(doc, atom.Tr) {
		var cells []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				cells = append(cells, nodeText(c))
			}
		}
		if len(cells) < 2 {
			continue
		}
		category, ok := CategoryForLabel(cells[0])
		if !ok {
			continue
		}
		value := cleanText(strings.Join(cells[1:], " "))
		if isPlaceholder(value) {
			continue
		}
		spec.add(category, value)
	}
	return spec
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// nodeText concatenates the text below n. Line breaks and block elements
// become spaces so "DDR5<br>32GB" reads as two words.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Br, atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol:
				b.WriteByte(' ')
			case atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.P, atom.Div, atom.Li:
				b.WriteByte(' ')
			}
		}
	}
	walk(n)
	return b.String()
}
