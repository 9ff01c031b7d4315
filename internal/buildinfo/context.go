// Package buildinfo contains build-time metadata kept apart from user configuration
package buildinfo

import (
	"fmt"

	"github.com/google/uuid"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// BuildInfo provides an interface for accessing build-time metadata.
type BuildInfo interface {
	// GetVersion returns the build version string
	GetVersion() string
	// GetBuildDate returns the build date string
	GetBuildDate() string
	// GetInstanceID returns the identifier of this process
	GetInstanceID() string
}

// Context contains build-time metadata that is not user-configurable.
// It is created once at startup from linker-injected values.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// InstanceID identifies this process in logs and error reports
	InstanceID string
}

// NewContext creates a Context with a fresh instance id.
func NewContext(version, buildDate string) *Context {
	return &Context{
		Version:    version,
		BuildDate:  buildDate,
		InstanceID: uuid.NewString(),
	}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// GetInstanceID implements BuildInfo.GetInstanceID
func (c *Context) GetInstanceID() string {
	if c == nil || c.InstanceID == "" {
		return UnknownValue
	}
	return c.InstanceID
}

// String renders the version line printed by the CLI.
func (c *Context) String() string {
	return fmt.Sprintf("pugmark %s (built %s)", c.GetVersion(), c.GetBuildDate())
}
