// Package component defines the core interfaces for lifecycle-managed
// infrastructure services in gryflux.
//
// Components represent services that require initialization, startup,
// shutdown, and health monitoring. They are registered with the bootstrap
// package for automatic lifecycle management.
//
// # Interfaces
//
//   - Component: Core lifecycle interface (Name/Start/Stop/Health)
//   - Describable: Bootstrap summary descriptions
//   - RouteProvider: HTTP routes listed in the bootstrap summary
package component
