package server

// Config is the [server] section of the configuration file.
type Config struct {
	// Hostname is the public base URL episodes and feeds are linked from
	Hostname string `toml:"hostname"`
	// Port to listen on, 8080 by default
	Port int `toml:"port"`
	// BindAddress restricts the listener to one address, "*" or empty binds to all
	BindAddress string `toml:"bind_address"`
	// UIOrigin is the origin allowed to call the API from a browser
	UIOrigin string `toml:"ui_origin"`
	// BookThumbnail is the cover image assigned to new books
	BookThumbnail string `toml:"book_thumbnail"`
	// Accounts maps basic auth user names to passwords
	Accounts map[string]string `toml:"accounts"`
	// Protected lists path prefixes that require basic auth
	Protected []string `toml:"protected"`
}
