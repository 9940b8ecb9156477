package services

import (
	"context"
)

// ServiceState represents the current lifecycle state of a service
type ServiceState string

const (
	StateUnknown  ServiceState = "Unknown"
	StateWaiting  ServiceState = "Waiting"
	StateStarting ServiceState = "Starting"
	StateRunning  ServiceState = "Running"
	StateStopping ServiceState = "Stopping"
	StateStopped  ServiceState = "Stopped"
	StateFailed   ServiceState = "Failed"
)

// HealthStatus represents the health of a service as last observed
type HealthStatus string

const (
	HealthUnknown   HealthStatus = "Unknown"
	HealthHealthy   HealthStatus = "Healthy"
	HealthUnhealthy HealthStatus = "Unhealthy"
	HealthChecking  HealthStatus = "Checking"
)

// Service is the core interface every managed service implements
type Service interface {
	// Lifecycle management
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error

	// State management
	GetState() ServiceState
	GetHealth() HealthStatus
	GetLastError() error

	// Service metadata
	GetLabel() string
	GetDependencies() []string

	// State change notifications
	// The service calls this callback when its state changes
	SetStateChangeCallback(callback StateChangeCallback)
}

// StateChangeCallback is called when a service's state changes
type StateChangeCallback func(label string, oldState, newState ServiceState, health HealthStatus, err error)

// StateUpdater is an optional interface for services that allow external
// state updates. The sequencer uses it to mark services Running once a
// health gate passes, or Failed when a dependency never became healthy.
type StateUpdater interface {
	UpdateState(state ServiceState, health HealthStatus, err error)
}
