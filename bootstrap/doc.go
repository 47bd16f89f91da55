// Package bootstrap orchestrates application lifecycle for gryflux services.
//
// It provides configuration defaults and validation, component registration, dependency
// injection, and startup/shutdown hooks for rapid service initialization.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.RegisterComponent(pipeline); err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The bootstrap package applies configuration defaults and validation, starts
// components in registration order (stopping them in reverse), handles graceful
// shutdown on OS signals, and aggregates health. It does not load
// configuration itself; see the config package.
package bootstrap
