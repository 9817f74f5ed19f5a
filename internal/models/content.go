package models

import (
	"strings"
	"time"
)

type ContentKind string

const (
	ContentKindArticle   ContentKind = "article"
	ContentKindBlog      ContentKind = "blog"
	ContentKindCaseStudy ContentKind = "case_study"
)

func (k ContentKind) String() string {
	return string(k)
}

// Label is the human-facing name used in messages ("Blog not found").
func (k ContentKind) Label() string {
	switch k {
	case ContentKindArticle:
		return "Article"
	case ContentKindBlog:
		return "Blog"
	case ContentKindCaseStudy:
		return "Case study"
	default:
		return "Content"
	}
}

type Content struct {
	ID          string      `json:"id" db:"id"`
	Kind        ContentKind `json:"kind" db:"kind"`
	Title       string      `json:"title" db:"title"`
	Category    string      `json:"category" db:"category"`
	Description string      `json:"description" db:"description"`
	Body        string      `json:"content" db:"body"`
	CoverImage  string      `json:"cover_image" db:"cover_image"`
	VideoURL    string      `json:"video_url,omitempty" db:"video_url"`
	CreatedBy   string      `json:"created_by" db:"created_by"`
	Comments    []Comment   `json:"comments"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

type Comment struct {
	ID        string    `json:"id" db:"id"`
	ContentID string    `json:"content_id" db:"content_id"`
	UserID    string    `json:"user" db:"user_id"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ContentFilter struct {
	Kind     ContentKind
	Title    string
	Category string
	// AuthorIDs restricts results to these creators; a non-nil empty slice matches nothing.
	AuthorIDs []string
	Limit     int
	Offset    int
}

func (f ContentFilter) Matches(c *Content) bool {
	if c.Kind != f.Kind {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.AuthorIDs != nil {
		found := false
		for _, id := range f.AuthorIDs {
			if id == c.CreatedBy {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type CommentView struct {
	Comment
	User *UserSummary `json:"user_info,omitempty"`
}

type ContentView struct {
	Content
	Creator  *UserSummary  `json:"creator,omitempty"`
	Comments []CommentView `json:"comments"`
}
