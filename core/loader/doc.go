// Package loader provides the feature loading system.
//
// Each HTTP module implements the Feature interface and is registered with a
// Manager, which loads the enabled ones onto the Fiber app at startup.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager struct holds the registry of available features. It handles:
//   - Registration of features via Register()
//   - Loading of enabled features via LoadAll()
//
// The calendar feature (sync, purge, export) and the appointments feature are
// both wired this way.
package loader
