package feed

// Config holds podcast level properties of the generated feeds.
type Config struct {
	// Title of the youtube feed
	Title string `toml:"title"`
	// Description of the youtube feed
	Description string `toml:"description"`
	// Link is the website the feeds point to
	Link string `toml:"link"`
	// CoverArt of the youtube feed
	CoverArt      string   `toml:"cover_art"`
	Author        string   `toml:"author"`
	Category      string   `toml:"category"`
	Subcategories []string `toml:"subcategories"`
	Explicit      bool     `toml:"explicit"`
	Language      string   `toml:"lang"`
	OwnerName     string   `toml:"ownerName"`
	OwnerEmail    string   `toml:"ownerEmail"`
}
