// Package config loads runtime settings: environment-based connection
// configuration and mapping definition files.
package config

import (
	"errors"
	"os"
)

// Config holds the store connection settings, populated from environment
// variables (a .env file is loaded by cmd/main before this runs).
type Config struct {
	SQLConnString   string
	MongoConnString string
	MongoDatabase   string
}

// LoadConfig reads connection settings from the environment.
func LoadConfig() *Config {
	db := os.Getenv("MONGO_DATABASE")
	if db == "" {
		db = "lynxform"
	}
	return &Config{
		SQLConnString:   os.Getenv("SQL_CONNECTION_STRING"),
		MongoConnString: os.Getenv("MONGO_CONNECTION_STRING"),
		MongoDatabase:   db,
	}
}

// RequireMongo errors unless a MongoDB connection string is configured.
func (c *Config) RequireMongo() error {
	if c.MongoConnString == "" {
		return errors.New("MONGO_CONNECTION_STRING environment variable not set")
	}
	return nil
}

// RequireSQL errors unless a SQL connection string is configured.
func (c *Config) RequireSQL() error {
	if c.SQLConnString == "" {
		return errors.New("SQL_CONNECTION_STRING environment variable not set")
	}
	return nil
}
