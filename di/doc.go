// Package di provides a dependency injection container for gryflux applications.
//
// It supports eager, lazy, and singleton registration modes with type-safe
// resolution using Go generics. The container enables decoupled architecture
// by managing service dependencies and their lifecycle.
//
// # Registration
//
//	container.Register("my_service", func() (*MyService, error) {
//	    return NewMyService(), nil
//	})
//
// # Resolution
//
//	svc := di.MustResolve[*MyService](container, "my_service")
package di
