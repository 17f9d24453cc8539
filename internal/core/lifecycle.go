package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// The optional lifecycle interfaces run in this order for every loaded
// module: Configure, Provision, Validate, then Start. Stop runs in reverse
// load order on shutdown.

// Configurable modules receive their node from the modules section of
// gemgate.yaml. Modules without a node are not configured.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner fills defaults, opens resources and registers services.
// Services registered here are visible to every module provisioned later.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator checks the provisioned configuration. It must not change state.
type Validator interface {
	Validate() error
}

// Starter begins background work such as listeners and schedules. Every
// module is provisioned and validated before the first Start.
type Starter interface {
	Start() error
}

// Stopper releases what Provision or Start acquired. A module that only
// implements Stopper is still stopped on shutdown.
type Stopper interface {
	Stop(ctx context.Context) error
}
