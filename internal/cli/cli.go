package cli

import (
	"fmt"
	"time"
)

// CLI provides Docker-style command line output for the index/snapshot
// pipeline's pre/index/post and pre/snapshot/post phases.
type CLI struct {
	quiet      bool
	phaseStart time.Time
}

// New creates a new CLI instance
func New(quiet bool) *CLI {
	return &CLI{quiet: quiet}
}

// StartPhase begins a new phase (e.g. "pre", "index", "post", "snapshot").
func (c *CLI) StartPhase(name string) {
	if c.quiet {
		return
	}
	c.phaseStart = time.Now()
	fmt.Println()
	fmt.Printf("Running phase %s...\n", name)
}

// EndPhase ends the current phase
func (c *CLI) EndPhase() time.Duration {
	duration := time.Since(c.phaseStart)
	if !c.quiet {
		fmt.Printf("Successfully completed in %s\n", formatDuration(duration))
	}
	return duration
}

// Error prints an error message
func (c *CLI) Error(message string) {
	fmt.Printf("ERROR: %s\n", message)
}

// Summary prints a final summary (Docker "Successfully built" + "Successfully tagged")
func (c *CLI) Summary(title string, items map[string]string) {
	if c.quiet {
		return
	}

	fmt.Println()
	fmt.Printf("Successfully completed: %s\n", title)

	// Print items on separate lines
	for k, v := range items {
		fmt.Printf(" - %s: %s\n", k, v)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
