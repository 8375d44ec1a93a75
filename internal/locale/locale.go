package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Catalog maps string ids to per-language templates. Templates use
// {name} placeholders filled from the args map. It is read-only after
// New, so lookups need no locking.
type Catalog struct {
	tables   map[string]map[string]string // language key -> id -> template
	tags     []language.Tag
	matcher  language.Matcher
	fallback string
}

// New builds the catalog from the built-in language tables.
func New() *Catalog {
	c := &Catalog{
		tables:   map[string]map[string]string{"en": english},
		fallback: "en",
	}
	c.tags = make([]language.Tag, 0, len(c.tables))
	// Fallback language first: the matcher prefers earlier tags on a miss
	c.tags = append(c.tags, language.Make(c.fallback))
	for key := range c.tables {
		if key != c.fallback {
			c.tags = append(c.tags, language.Make(key))
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return c
}

// Match resolves a client-supplied locale ("en-GB", "es_MX", ...) to the
// key of the closest available language table.
func (c *Catalog) Match(requested string) string {
	if requested == "" {
		return c.fallback
	}
	tag, err := language.Parse(strings.ReplaceAll(requested, "_", "-"))
	if err != nil {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return c.fallback
	}
	base, _ := c.tags[idx].Base()
	return base.String()
}

// T renders the template for id in the given locale. Unknown ids render
// as the id itself so a missing string is visible rather than silent.
func (c *Catalog) T(loc, id string, args map[string]interface{}) string {
	table, ok := c.tables[c.Match(loc)]
	if !ok {
		table = c.tables[c.fallback]
	}
	tmpl, ok := table[id]
	if !ok {
		if tmpl, ok = c.tables[c.fallback][id]; !ok {
			return id
		}
	}
	return interpolate(tmpl, args)
}

// Has reports whether the id exists in any table.
func (c *Catalog) Has(id string) bool {
	_, ok := c.tables[c.fallback][id]
	return ok
}

// JoinList joins items with the locale's list separator: "a, b, c".
func (c *Catalog) JoinList(loc string, items []string) string {
	return strings.Join(items, c.T(loc, "list_separator", nil))
}

// JoinListAnd joins items with a final conjunction: "a, b and c".
func (c *Catalog) JoinListAnd(loc string, items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	head := strings.Join(items[:len(items)-1], c.T(loc, "list_separator", nil))
	return head + c.T(loc, "list_and", nil) + items[len(items)-1]
}

func interpolate(tmpl string, args map[string]interface{}) string {
	if len(args) == 0 {
		return tmpl
	}
	out := tmpl
	for key, val := range args {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprint(val))
	}
	return out
}
