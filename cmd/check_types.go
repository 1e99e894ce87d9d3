package cmd

import (
	"io"
	"os"
)

// GateConfig holds configuration for a gate run
type GateConfig struct {
	SopsBin   string
	CheckOnly bool
	Stage     bool

	// Diag receives the human diagnostics printed during the run. JSON mode
	// points it at stderr so stdout stays parseable.
	Diag io.Writer
}

func (c *GateConfig) diag() io.Writer {
	if c.Diag != nil {
		return c.Diag
	}
	return os.Stdout
}

// secretMeta is the slice of a manifest the gate remembers before sops
// rewrites the file in place.
type secretMeta struct {
	Metadata struct {
		Name      string `yaml:"name"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metadata"`
}
