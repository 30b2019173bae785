package crawl

import "fmt"

// TitleSource supplies the titles already persisted for a collection.
type TitleSource interface {
	Titles() (map[string]struct{}, error)
}

// Guard remembers which titles have been written so an item is never
// stored twice. It lives for one run and is re-seeded from the store on the
// next.
type Guard struct {
	titles map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{titles: make(map[string]struct{})}
}

// Seed adds every title from src.
func (g *Guard) Seed(src TitleSource) error {
	titles, err := src.Titles()
	if err != nil {
		return fmt.Errorf("failed to seed duplicate guard: %w", err)
	}
	for title := range titles {
		g.titles[title] = struct{}{}
	}
	return nil
}

// Contains reports whether title has been seen.
func (g *Guard) Contains(title string) bool {
	_, ok := g.titles[title]
	return ok
}

// Add marks title as seen.
func (g *Guard) Add(title string) {
	g.titles[title] = struct{}{}
}

// Len returns the number of known titles.
func (g *Guard) Len() int {
	return len(g.titles)
}
