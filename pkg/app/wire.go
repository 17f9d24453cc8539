package app

import (
	"github.com/flemzord/gemgate/internal/core"
	"github.com/flemzord/gemgate/internal/telemetry"
	"github.com/flemzord/gemgate/internal/usage"
)

// Service names for the process-wide security objects.
const (
	ServiceCredentials = "security.credentials"
	ServiceRedactor    = "security.redactor"
	ServiceConfigPath  = "config.path"
)

// registerServices publishes the shared services every module may look up.
// Must be called before LoadModules. The in-memory ledger is a fallback;
// usage.sqlite replaces it when configured.
func registerServices(appCtx *core.AppContext, rt *Runtime) {
	appCtx.RegisterService(ServiceCredentials, rt.credentials)
	appCtx.RegisterService(ServiceRedactor, rt.redactor)
	appCtx.RegisterService(ServiceConfigPath, rt.ConfigPath)
	appCtx.RegisterService(telemetry.ServiceName, rt.Metrics)
	appCtx.RegisterService(usage.ServiceName, usage.NewInMemoryLedger())
}

// syncSecrets feeds every credential registered so far to the log redactor.
func syncSecrets(rt *Runtime) {
	rt.redactor.SyncCredentials(rt.credentials)
}
