package assistant

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/crm-assistant/internal/records"
)

//go:embed pages.yaml
var defaultPagesYAML []byte

// Page is one navigable application page.
type Page struct {
	Name    string         `yaml:"name"`
	Entity  records.Entity `yaml:"entity"`
	Aliases []string       `yaml:"aliases"`
}

type pageAlias struct {
	alias   string
	pattern *regexp.Regexp
	page    Page
}

// PageCatalog resolves page aliases in normalized text. Immutable after load.
type PageCatalog struct {
	pages   []Page
	aliases []pageAlias
}

// LoadPageCatalog parses a YAML page list. Every page needs a name and at least one
// alias, and an alias may belong to only one page.
func LoadPageCatalog(data []byte) (*PageCatalog, error) {
	var doc struct {
		Pages []Page `yaml:"pages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("assistant: parse page catalog: %w", err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("assistant: page catalog is empty")
	}

	catalog := &PageCatalog{}
	seen := make(map[string]string)
	for _, page := range doc.Pages {
		page.Name = strings.TrimSpace(page.Name)
		if page.Name == "" {
			return nil, fmt.Errorf("assistant: page without name")
		}
		if len(page.Aliases) == 0 {
			return nil, fmt.Errorf("assistant: page %s has no aliases", page.Name)
		}
		if page.Entity != "" {
			entity, err := records.ParseEntity(string(page.Entity))
			if err != nil {
				return nil, fmt.Errorf("assistant: page %s: %w", page.Name, err)
			}
			page.Entity = entity
		}
		catalog.pages = append(catalog.pages, page)
		for _, a := range page.Aliases {
			a = Normalize(a)
			if a == "" {
				continue
			}
			if owner, dup := seen[a]; dup {
				return nil, fmt.Errorf("assistant: alias %q used by %s and %s", a, owner, page.Name)
			}
			seen[a] = page.Name
			catalog.aliases = append(catalog.aliases, pageAlias{
				alias:   a,
				pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(a) + `\b`),
				page:    page,
			})
		}
	}
	sort.SliceStable(catalog.aliases, func(i, j int) bool {
		return len(catalog.aliases[i].alias) > len(catalog.aliases[j].alias)
	})
	return catalog, nil
}

var (
	defaultCatalog     *PageCatalog
	defaultCatalogOnce sync.Once
)

// DefaultPageCatalog returns the embedded catalog. It panics if the embedded file is invalid.
func DefaultPageCatalog() *PageCatalog {
	defaultCatalogOnce.Do(func() {
		catalog, err := LoadPageCatalog(defaultPagesYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = catalog
	})
	return defaultCatalog
}

// Match returns the page whose longest alias appears in norm.
func (c *PageCatalog) Match(norm string) (Page, bool) {
	for _, a := range c.aliases {
		if a.pattern.MatchString(norm) {
			return a.page, true
		}
	}
	return Page{}, false
}

// PageFor returns the page that lists records of the entity.
func (c *PageCatalog) PageFor(entity records.Entity) (Page, bool) {
	for _, p := range c.pages {
		if p.Entity == entity {
			return p, true
		}
	}
	return Page{}, false
}

// Pages returns a copy of the catalog's pages in file order.
func (c *PageCatalog) Pages() []Page {
	return append([]Page(nil), c.pages...)
}
