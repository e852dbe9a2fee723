package db

type Config struct {
	// Path is the SQLite catalog file, defaults to catalog.db inside Dir
	Path string `toml:"path"`
	// Dir is a directory to keep database files
	Dir    string        `toml:"dir"`
	Badger *BadgerConfig `toml:"badger"`
}
