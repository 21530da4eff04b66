package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Listener ListenerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
	CreateDemoUsers bool
}

// ListenerConfig holds contract-event listener settings
type ListenerConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	Workers         int
	CurrenciesFile  string
}
