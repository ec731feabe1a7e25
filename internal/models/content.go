package models

import "time"

type ContentType string

const (
	ContentBlog     ContentType = "blog"
	ContentAcademic ContentType = "academic"
)

// ContentItem is one blog post or academic paper in a listing.
type ContentItem struct {
	Slug     string      `json:"slug"`
	Title    string      `json:"title"`
	Excerpt  string      `json:"excerpt"`
	Date     time.Time   `json:"date"`
	Category string      `json:"category"`
	Image    string      `json:"image,omitempty"`
	Author   string      `json:"author"`
	PDFURL   string      `json:"pdfUrl,omitempty"`
	Type     ContentType `json:"type"`
	Tags     []string    `json:"tags,omitempty"`
}
