// Package doc renders the documentation of a schema: a Markdown page
// grouping the entities by category, and a Graphviz diagram of the
// references between them.
package doc

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/schema"
)

// DefaultName is the base name of the documentation files.
const DefaultName = "datamodel"

// uncategorized is the title of the entities without a category.
const uncategorized = "General"

//go:embed template/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("doc").Funcs(template.FuncMap{
	"inc":      func(i int) int { return i + 1 },
	"anchor":   anchor,
	"cell":     cell,
	"attrType": attrType,
}).ParseFS(templateFS, "template/*.tmpl"))

type (
	// model is the data the templates are executed with.
	model struct {
		Name       string
		Categories []*category
		Entities   []*schema.Entity
	}

	// category groups the entities sharing a category, sorted by name.
	category struct {
		Name     string
		Title    string
		Anchor   string
		Entities []*schema.Entity
	}
)

func newModel(s *schema.Schema, name string) *model {
	m := &model{Name: name, Entities: s.Entities()}
	byName := make(map[string]*category)
	for _, e := range m.Entities {
		c, ok := byName[e.Category()]
		if !ok {
			c = &category{Name: e.Category(), Title: uncategorized}
			if c.Name != "" {
				c.Title = title(c.Name)
			}
			c.Anchor = "category-" + anchor(c.Title)
			byName[c.Name] = c
			m.Categories = append(m.Categories, c)
		}
		c.Entities = append(c.Entities, e)
	}
	sort.Slice(m.Categories, func(i, j int) bool {
		return m.Categories[i].Name < m.Categories[j].Name
	})
	for _, c := range m.Categories {
		sort.SliceStable(c.Entities, func(i, j int) bool {
			return c.Entities[i].Name() < c.Entities[j].Name()
		})
	}
	return m
}

// Markdown renders the Markdown page of s. The page links the diagram as
// name.svg, which Graphviz renders from the output of Dot.
func Markdown(s *schema.Schema, name string) ([]byte, error) {
	return execute("markdown", s, name)
}

// Dot renders the Graphviz diagram of s.
func Dot(s *schema.Schema, name string) ([]byte, error) {
	return execute("dot", s, name)
}

// Files renders the documentation files of s, name.md and name.dot.
func Files(s *schema.Schema, name string) ([]gen.File, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, gen.NewConfigError("Docs", name, "documentation name must be a plain file name")
	}
	md, err := Markdown(s, name)
	if err != nil {
		return nil, err
	}
	dot, err := Dot(s, name)
	if err != nil {
		return nil, err
	}
	return []gen.File{
		{Path: name + ".md", Content: md},
		{Path: name + ".dot", Content: dot},
	}, nil
}

// Write renders the documentation of s and writes it to dir. Nothing is
// written if rendering fails.
func Write(dir, name string, s *schema.Schema) error {
	files, err := Files(s, name)
	if err != nil {
		return err
	}
	return gen.NewWriter(dir).WriteAll(files)
}

func execute(tmpl string, s *schema.Schema, name string) ([]byte, error) {
	if name == "" {
		name = DefaultName
	}
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, tmpl, newModel(s, name)); err != nil {
		return nil, gen.NewGenerationError("docs", name, fmt.Sprintf("execute %s template", tmpl), err)
	}
	return b.Bytes(), nil
}

// title returns s in title case. A Caser keeps state, so each call uses
// its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// anchor returns the link anchor of a heading.
func anchor(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// cell escapes s for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// attrType describes the type of the attribute and its modifiers.
func attrType(a *schema.Attribute) string {
	var b strings.Builder
	for _, m := range []struct {
		set  bool
		name string
	}{
		{a.Sensitive(), "sensitive"},
		{a.Unique(), "unique"},
		{a.Nullable(), "optional"},
		{a.Immutable(), "immutable"},
	} {
		if m.set {
			b.WriteString(m.name)
			b.WriteByte(' ')
		}
	}
	if ref := a.Ref(); ref != nil {
		fmt.Fprintf(&b, "reference to [%s](#%s)", ref.Name(), anchor(ref.Name()))
	} else {
		b.WriteString(a.Type().String())
	}
	return b.String()
}
