package bootstrap

import (
	"github.com/dalemusser/phoneform/registry"
	"github.com/dalemusser/phoneform/templates"
)

// Deps are built once at startup. Everything is in memory.
type Deps struct {
	Registry  *registry.Registry
	Templates *templates.Engine
}
