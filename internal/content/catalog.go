// Package content serves the blog and academic listings.
package content

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"omerhsa-quotes/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBlogAuthor       = "Equipo OMERHSA"
	DefaultAcademicCategory = "Seguros"
	defaultBlogCategory     = "General"
)

type blogEntry struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Excerpt     string   `yaml:"excerpt"`
	PublishDate string   `yaml:"publishDate"`
	Author      string   `yaml:"author"`
	Image       string   `yaml:"image"`
	Tags        []string `yaml:"tags"`
}

type academicEntry struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Abstract    string `yaml:"abstract"`
	PublishDate string `yaml:"publishDate"`
	Author      string `yaml:"author"`
	PDFURL      string `yaml:"pdfUrl"`
	Category    string `yaml:"category"`
}

type catalogFile struct {
	Blog     []blogEntry     `yaml:"blog"`
	Academic []academicEntry `yaml:"academic"`
}

// Catalog holds every listing item, newest first.
type Catalog struct {
	items []models.ContentItem
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse content catalog: %w", err)
	}

	items := make([]models.ContentItem, 0, len(file.Blog)+len(file.Academic))
	for _, b := range file.Blog {
		date, err := parseDate(b.PublishDate)
		if err != nil {
			return nil, fmt.Errorf("blog %q: %w", b.Slug, err)
		}
		item := models.ContentItem{
			Slug:     b.Slug,
			Title:    b.Title,
			Excerpt:  b.Excerpt,
			Date:     date,
			Category: defaultBlogCategory,
			Image:    b.Image,
			Author:   b.Author,
			Type:     models.ContentBlog,
			Tags:     b.Tags,
		}
		if len(b.Tags) > 0 {
			item.Category = b.Tags[0]
		}
		if item.Author == "" {
			item.Author = DefaultBlogAuthor
		}
		items = append(items, item)
	}

	for _, a := range file.Academic {
		date, err := parseDate(a.PublishDate)
		if err != nil {
			return nil, fmt.Errorf("academic %q: %w", a.Slug, err)
		}
		if a.Author == "" {
			return nil, fmt.Errorf("academic %q: author is required", a.Slug)
		}
		item := models.ContentItem{
			Slug:     a.Slug,
			Title:    a.Title,
			Excerpt:  a.Abstract,
			Date:     date,
			Category: a.Category,
			Author:   a.Author,
			PDFURL:   a.PDFURL,
			Type:     models.ContentAcademic,
		}
		if item.Category == "" {
			item.Category = DefaultAcademicCategory
		}
		items = append(items, item)
	}

	for _, item := range items {
		if item.Slug == "" || item.Title == "" {
			return nil, fmt.Errorf("content item requires slug and title")
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
	return &Catalog{items: items}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid publishDate %q", s)
}

// Items returns the items of kind, or every item when kind is empty.
func (c *Catalog) Items(kind models.ContentType) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(c.items))
	for _, item := range c.items {
		if kind == "" || item.Type == kind {
			out = append(out, item)
		}
	}
	return out
}

// Categories lists the distinct categories of items in first-seen order.
func Categories(items []models.ContentItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if !seen[item.Category] {
			seen[item.Category] = true
			out = append(out, item.Category)
		}
	}
	return out
}
