// Package orchestrator provides the core service orchestration
// functionality for socctl.
//
// The orchestrator manages the lifecycle of every container-backed
// service in the stack. It builds a dependency graph from the service
// declarations, starts services level by level in dependency order
// with bounded concurrency, and gates each start on a readiness probe.
//
// # Startup
//
// Services are grouped into dependency levels: level 0 holds services
// with no dependencies, level N holds services whose deepest dependency
// chain has length N. All services in a level may start concurrently,
// capped by the configured limit; the next level begins only when the
// previous one has settled.
//
// A service whose probe never passes within its health timeout is
// marked Failed, and every service depending on it transitively is
// marked Failed without being started. Independent branches of the
// graph keep going.
//
// # Shutdown
//
// Down walks the reverse of the startup order so nothing is stopped
// before its dependents. Reset additionally destroys the data volumes
// of stateful services, and refuses to run without explicit
// confirmation.
package orchestrator
