package article

// Article is a read-only editorial record served by the articles feed.
type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	ImageURL string `json:"imageUrl"`
	Category string `json:"category"`
	ReadTime string `json:"readTime"`
}

// Page is one pagination window over the article list.
type Page struct {
	Articles      []Article `json:"articles"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalArticles int       `json:"totalArticles"`
}
