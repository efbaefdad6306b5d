package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main library database
	DefaultDatabasePath = "./library.db"
)
