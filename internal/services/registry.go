package services

import (
	"fmt"
	"sync"
)

// Registry holds all managed services by label. Registration order is
// preserved so listings stay stable across calls.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
	order    []string
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
	}
}

// Register adds a service to the registry. Duplicate labels are rejected.
func (r *Registry) Register(service Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := service.GetLabel()
	if label == "" {
		return fmt.Errorf("service has no label")
	}
	if _, exists := r.services[label]; exists {
		return fmt.Errorf("service %q is already registered", label)
	}

	r.services[label] = service
	r.order = append(r.order, label)
	return nil
}

// Unregister removes a service by label.
func (r *Registry) Unregister(label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[label]; !exists {
		return fmt.Errorf("service %q is not registered", label)
	}
	delete(r.services, label)
	for i, l := range r.order {
		if l == label {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a service by label.
func (r *Registry) Get(label string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.services[label]
	return s, ok
}

// GetAll returns all registered services in registration order.
func (r *Registry) GetAll() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Service, 0, len(r.order))
	for _, label := range r.order {
		all = append(all, r.services[label])
	}
	return all
}

// Labels returns all registered labels in registration order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, len(r.order))
	copy(labels, r.order)
	return labels
}
