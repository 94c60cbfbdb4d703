package shopping

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed print.html.tmpl
var printTemplate string

const (
	checklistSubtitle = "In-store checklist"
	cartReadySubtitle = "Ready for online cart"
)

// Formatter renders grocery lists as copy-paste text and printable HTML.
type Formatter struct {
	// ChecklistStoreID marks the store rendered as an in-store checklist.
	ChecklistStoreID string

	tmpl *template.Template
}

// NewFormatter parses the embedded print template.
func NewFormatter(checklistStoreID string) (*Formatter, error) {
	tmpl, err := template.New("print").Parse(printTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse print template: %w", err)
	}
	return &Formatter{ChecklistStoreID: checklistStoreID, tmpl: tmpl}, nil
}

// FormatQuantity rounds to two decimals and drops the tail for integral values.
func FormatQuantity(q float64) string {
	rounded := math.Round(q*100) / 100
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strings.TrimRight(strconv.FormatFloat(rounded, 'f', 2, 64), "0")
}

// ItemText is "<qty> <unit> <Title Case Name>" with collapsed whitespace.
// Unknown quantities render without a number.
func ItemText(item Item) string {
	var parts []string
	if item.Qty != nil {
		parts = append(parts, FormatQuantity(*item.Qty))
	}
	parts = append(parts, item.Unit, cases.Title(language.English).String(item.Name))
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (f *Formatter) subtitle(g Group) string {
	switch {
	case f.ChecklistStoreID != "" && g.Store.ID == f.ChecklistStoreID:
		return checklistSubtitle
	case g.CartReady:
		return cartReadySubtitle
	}
	return ""
}

func (f *Formatter) linePrefix(g Group) string {
	if f.ChecklistStoreID != "" && g.Store.ID == f.ChecklistStoreID {
		return "- [ ] "
	}
	return "- "
}

// StoreText renders one store section. Empty groups render as "".
func (f *Formatter) StoreText(g Group) string {
	if len(g.Items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(g.Store.Name)
	if sub := f.subtitle(g); sub != "" {
		b.WriteString("\n")
		b.WriteString(sub)
	}
	prefix := f.linePrefix(g)
	for _, item := range g.Items {
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(ItemText(item))
	}
	return b.String()
}

// ordered returns the non-empty groups of list in the given store order.
// A nil order keeps the list's own order.
func ordered(list List, order []string) []Group {
	if order == nil {
		order = list.StoreOrder()
	}
	var out []Group
	for _, id := range order {
		if g, ok := list.Group(id); ok && len(g.Items) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Text concatenates the non-empty store sections in order, separated by a blank line.
func (f *Formatter) Text(list List, order []string) string {
	var sections []string
	for _, g := range ordered(list, order) {
		sections = append(sections, f.StoreText(g))
	}
	return strings.Join(sections, "\n\n")
}

type printItem struct {
	Text string
}

type printSection struct {
	Name     string
	Subtitle string
	Items    []printItem
}

type printPage struct {
	Title    string
	Sections []printSection
}

// PrintHTML renders a printable document with one section per non-empty store.
func (f *Formatter) PrintHTML(list List, order []string) (string, error) {
	page := printPage{Title: "Grocery list"}
	if list.From != "" && list.To != "" {
		page.Title = fmt.Sprintf("Grocery list %s to %s", list.From, list.To)
	}
	for _, g := range ordered(list, order) {
		section := printSection{Name: g.Store.Name, Subtitle: f.subtitle(g)}
		for _, item := range g.Items {
			section.Items = append(section.Items, printItem{Text: ItemText(item)})
		}
		page.Sections = append(page.Sections, section)
	}

	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("failed to render print document: %w", err)
	}
	return buf.String(), nil
}
