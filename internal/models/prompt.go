package models

import (
	"strings"
	"time"
)

// Prompt is a curated library entry: ready-made prompts plus usage tips.
type Prompt struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title" validate:"required,max=255"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category" validate:"max=255"`
	Prompts     []string  `json:"prompts" db:"prompts" validate:"required,min=1,dive,required"`
	Tips        []string  `json:"tips" db:"tips"`
	Image       string    `json:"image" db:"image" validate:"omitempty,url"`
	SourceURL   string    `json:"source_url,omitempty" db:"source_url" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type PromptFilter struct {
	Title    string
	Category string
	Limit    int
	Offset   int
}

func (f PromptFilter) Matches(p *Prompt) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Title)) {
		return false
	}
	return f.Category == "" || p.Category == f.Category
}
