package article

import (
	"encoding/json"
	"log"
	"os"
)

// Store exposes article retrieval for HTTP handlers.
type Store interface {
	Page(page, limit int) Page
	FindByID(id int) (Article, bool)
}

// MemoryStore implements Store over a list loaded once at startup.
type MemoryStore struct {
	items []Article
}

// NewMemoryStore returns a MemoryStore holding the supplied articles.
func NewMemoryStore(items []Article) *MemoryStore {
	return &MemoryStore{items: append([]Article(nil), items...)}
}

// LoadFile reads an article list from a JSON file, falling back to the
// built-in seed when the path is empty or unreadable.
func LoadFile(path string) *MemoryStore {
	if path == "" {
		return NewMemoryStore(Seed())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[articles] failed to read %s, using seed data: %v", path, err)
		return NewMemoryStore(Seed())
	}

	var items []Article
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("[articles] failed to parse %s, using seed data: %v", path, err)
		return NewMemoryStore(Seed())
	}

	return NewMemoryStore(items)
}

// Page returns the requested pagination window. Out-of-range pages yield an
// empty slice, not an error.
func (s *MemoryStore) Page(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	total := len(s.items)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	window := make([]Article, end-start)
	copy(window, s.items[start:end])

	return Page{
		Articles:      window,
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalArticles: total,
	}
}

// FindByID looks up an article by identifier.
func (s *MemoryStore) FindByID(id int) (Article, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Article{}, false
}

// Seed provides the default editorial content shipped with the service.
func Seed() []Article {
	return []Article{
		{
			ID:       1,
			Title:    "Understanding Optimal Sleep Duration",
			Summary:  "Learn about the importance of sleep and how much you really need based on your age and lifestyle.",
			ImageURL: "https://images.pexels.com/photos/271897/pexels-photo-271897.jpeg",
			Category: "Wellness",
			ReadTime: "4 min read",
		},
		{
			ID:       2,
			Title:    "Home Remedies for Common Cold",
			Summary:  "Effective ways to alleviate cold symptoms and speed up recovery using items you already have at home.",
			ImageURL: "https://images.pexels.com/photos/3873173/pexels-photo-3873173.jpeg",
			Category: "Home Care",
			ReadTime: "5 min read",
		},
		{
			ID:       3,
			Title:    "Managing Seasonal Allergies",
			Summary:  "Practical tips to minimize allergy symptoms during peak seasons.",
			ImageURL: "https://images.pexels.com/photos/3807332/pexels-photo-3807332.jpeg",
			Category: "Allergies",
			ReadTime: "3 min read",
		},
		{
			ID:       4,
			Title:    "Effective Home Acne Treatments",
			Summary:  "Science-backed approaches to treating acne with common household ingredients.",
			ImageURL: "https://images.pexels.com/photos/3785176/pexels-photo-3785176.jpeg",
			Category: "Skin Care",
			ReadTime: "6 min read",
		},
		{
			ID:       5,
			Title:    "Understanding Headache Types",
			Summary:  "Learn to identify different types of headaches and when to seek medical attention.",
			ImageURL: "https://images.pexels.com/photos/7176026/pexels-photo-7176026.jpeg",
			Category: "Pain Management",
			ReadTime: "4 min read",
		},
	}
}
