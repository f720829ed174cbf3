package server

import (
	"net"
	"strconv"
)

// ServerConfig holds HTTP API settings for `crowagent serve`.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Housekeeping is a cron spec for the periodic cache report.
	Housekeeping string `json:"housekeeping"`
	// CachePurge optionally empties the result cache on a schedule.
	CachePurge  string   `json:"cachePurge,omitempty"`
	CORSOrigins []string `json:"corsOrigins"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         18790,
		Housekeeping: "@every 5m",
		CORSOrigins:  []string{"*"},
	}
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
