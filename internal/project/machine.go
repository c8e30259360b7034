package project

import (
	"os"
	"strings"
)

// MachineID returns the identifier under which this machine's access
// statistics are recorded. Hostname-derived; falls back to a fixed value
// when the hostname is unavailable so bookkeeping still lands somewhere
// deterministic.
func MachineID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown-machine"
	}
	// Strip any domain suffix; "work-laptop.local" and "work-laptop"
	// are the same machine.
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}
