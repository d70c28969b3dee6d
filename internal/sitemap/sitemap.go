// Package sitemap renders the XML sitemap of published pages.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"equipflow/sei/internal/config"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/logger"
)

const namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Priorities by page category.
const (
	HubPriority   = "0.9"
	SpokePriority = "0.7"
)

// Entry is one <url> element.
type Entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	Priority   string `xml:"priority"`
	ChangeFreq string `xml:"changefreq"`
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []Entry  `xml:"url"`
}

// Build returns the entries of every published node in nodes, in order.
func Build(nodes []db.Node, site config.SiteConfig) []Entry {
	var out []Entry
	for _, n := range nodes {
		if n.Status != db.StatusPublished {
			continue
		}
		priority := SpokePriority
		if n.IsHub() {
			priority = HubPriority
		}
		out = append(out, Entry{
			Loc:        site.PageURL(n.URLSlug),
			LastMod:    time.UnixMilli(n.UpdatedAt).UTC().Format("2006-01-02"),
			Priority:   priority,
			ChangeFreq: "weekly",
		})
	}
	return out
}

// Render encodes entries as a sitemap document with an XML declaration.
func Render(entries []Entry) ([]byte, error) {
	body, err := xml.MarshalIndent(urlset{XMLNS: namespace, URLs: entries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding sitemap: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// Result reports a written sitemap.
type Result struct {
	Path string `json:"path"`
	URLs int    `json:"urls"`
}

// Generator writes the sitemap artifact from the registry.
type Generator struct {
	db   *db.DB
	site config.SiteConfig
	path string
	log  *logger.Logger
}

// NewGenerator creates a sitemap generator writing to path.
func NewGenerator(d *db.DB, site config.SiteConfig, path string, log *logger.Logger) *Generator {
	return &Generator{db: d, site: site, path: path, log: log.Component("sitemap")}
}

// Generate renders every published page and replaces the file at the
// configured path.
func (g *Generator) Generate() (*Result, error) {
	nodes, err := g.db.NodesByStatus(db.StatusPublished)
	if err != nil {
		return nil, err
	}
	entries := Build(nodes, g.site)
	if len(entries) == 0 {
		g.log.Warn("no published pages found")
	}
	data, err := Render(entries)
	if err != nil {
		return nil, err
	}
	if err := writeFile(g.path, data); err != nil {
		return nil, err
	}
	g.log.Info("sitemap written", "path", g.path, "urls", len(entries))
	return &Result{Path: g.path, URLs: len(entries)}, nil
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".sitemap-*.xml")
	if err != nil {
		return fmt.Errorf("creating temp sitemap: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing sitemap: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing sitemap: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
