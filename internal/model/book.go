package model

import (
	"maps"
	"slices"
	"strconv"
)

// Book is the top-level entity managed by the service. It is stored as a
// single document including its nested contents.
type Book struct {
	ID       string              `json:"id"`
	Score    float64             `json:"score"`
	Name     []string            `json:"name"`
	Category string              `json:"category"`
	Rating   string              `json:"rating"`
	Tags     map[string][]string `json:"tags,omitempty"`
	Contents []BookContent       `json:"contents"`
}

// BookContent is one scan/release of a book. Its ID is only unique within
// the parent book.
type BookContent struct {
	ID        int64    `json:"id"`
	PageCount int      `json:"page_count"`
	Language  string   `json:"language"`
	IsColor   bool     `json:"is_color"`
	Sources   []string `json:"sources,omitempty"`
}

func (b *Book) TargetID() string       { return b.ID }
func (b *Book) TargetType() EntityType { return EntityBook }

func (b *Book) AddScore(delta float64) float64 {
	b.Score += delta
	return b.Score
}

// ContentIndex returns the position of the content with the given id, or -1.
func (b *Book) ContentIndex(contentID int64) int {
	return slices.IndexFunc(b.Contents, func(c BookContent) bool { return c.ID == contentID })
}

// Clone returns a deep copy so callers can mutate it without aliasing the
// original slices and maps.
func (b *Book) Clone() *Book {
	out := *b
	out.Name = slices.Clone(b.Name)
	if b.Tags != nil {
		out.Tags = make(map[string][]string, len(b.Tags))
		for k, v := range b.Tags {
			out.Tags[k] = slices.Clone(v)
		}
	}
	out.Contents = make([]BookContent, len(b.Contents))
	for i, c := range b.Contents {
		out.Contents[i] = c.Clone()
	}
	return &out
}

func (c BookContent) Clone() BookContent {
	c.Sources = slices.Clone(c.Sources)
	return c
}

// PageKeys enumerates the asset store keys backing the pages of a content.
func PageKeys(bookID string, c BookContent) []string {
	keys := make([]string, 0, c.PageCount)
	for i := 0; i < c.PageCount; i++ {
		keys = append(keys, PageKey(bookID, c.ID, i))
	}
	return keys
}

// PageKey is the asset store key of a single page.
func PageKey(bookID string, contentID int64, index int) string {
	return bookID + "/" + strconv.FormatInt(contentID, 10) + "/" + strconv.Itoa(index)
}

// BookFiles enumerates the page keys of every content of a book.
func BookFiles(b *Book) []string {
	var keys []string
	for _, c := range b.Contents {
		keys = append(keys, PageKeys(b.ID, c)...)
	}
	return keys
}

// BookCreate carries the caller supplied fields of a new book.
type BookCreate struct {
	Name     []string            `json:"name"`
	Category string              `json:"category"`
	Rating   string              `json:"rating"`
	Tags     map[string][]string `json:"tags,omitempty"`
}

// MaxPageCount is the largest page count a content may declare.
const MaxPageCount = 5000

// BookContentCreate carries the caller supplied fields of a new content.
type BookContentCreate struct {
	PageCount int      `json:"page_count"`
	Language  string   `json:"language"`
	IsColor   bool     `json:"is_color"`
	Sources   []string `json:"sources,omitempty"`
}

// BookUpdate is a partial update. Nil fields keep the existing value.
type BookUpdate struct {
	Name     []string            `json:"name,omitempty"`
	Category *string             `json:"category,omitempty"`
	Rating   *string             `json:"rating,omitempty"`
	Tags     map[string][]string `json:"tags,omitempty"`
}

// Apply merges the update onto b.
func (u BookUpdate) Apply(b *Book) {
	if u.Name != nil {
		b.Name = slices.Clone(u.Name)
	}
	if u.Category != nil {
		b.Category = *u.Category
	}
	if u.Rating != nil {
		b.Rating = *u.Rating
	}
	if u.Tags != nil {
		b.Tags = maps.Clone(u.Tags)
	}
}

// BookContentUpdate is a partial update of a content. Nil fields keep the
// existing value. Page count is fixed when the content is created.
type BookContentUpdate struct {
	Language *string  `json:"language,omitempty"`
	IsColor  *bool    `json:"is_color,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

// Apply merges the update onto c.
func (u BookContentUpdate) Apply(c *BookContent) {
	if u.Language != nil {
		c.Language = *u.Language
	}
	if u.IsColor != nil {
		c.IsColor = *u.IsColor
	}
	if u.Sources != nil {
		c.Sources = slices.Clone(u.Sources)
	}
}
