// Package memory implements the repository interfaces in process. A single
// mutex guards the whole store, so every check-and-write is one critical
// section.
package memory

import (
	"sync"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

type Store struct {
	mu sync.RWMutex

	users      map[string]*models.User
	userOrder  []string
	emails     map[string]string
	projects   map[string]*models.Project
	projOrder  []string
	courses    map[string]*models.Course
	courseSeq  []string
	contents   map[string]*models.Content
	contentSeq []string
	wishlists  map[string][]models.WishlistItem
	prompts    map[string]*models.Prompt
	promptSeq  []string
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		emails:    make(map[string]string),
		projects:  make(map[string]*models.Project),
		courses:   make(map[string]*models.Course),
		contents:  make(map[string]*models.Content),
		wishlists: make(map[string][]models.WishlistItem),
		prompts:   make(map[string]*models.Prompt),
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func page(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && limit < n-offset {
		end = offset + limit
	}
	return offset, end
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
