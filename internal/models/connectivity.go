package models

import "time"

// ConnectivitySnapshot is the monitor's view of network liveness at a
// point in time. Mutated only by the connectivity monitor.
type ConnectivitySnapshot struct {
	IsConnected         bool       `json:"is_connected"`
	IsChecking          bool       `json:"is_checking"`
	LastCheckedAt       *time.Time `json:"last_checked_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}
