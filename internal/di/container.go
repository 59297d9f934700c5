// internal/di/container.go
package di

import (
	"fmt"
	"sort"
	"sync"
)

// Service names used by the application wiring
const (
	ServiceConfig      = "config"
	ServiceStore       = "store"
	ServiceAnalyzer    = "analyzer"
	ServiceSubmissions = "submissions"
	ServiceStats       = "stats"
	ServiceExport      = "export"
	ServiceAdminAuth   = "admin_auth"
	ServiceFeed        = "feed"
)

// Container is a name → instance registry
type Container struct {
	services map[string]interface{}
	mutex    sync.RWMutex
}

var (
	globalContainer *Container
	once            sync.Once
)

func NewContainer() *Container {
	return &Container{
		services: make(map[string]interface{}),
	}
}

// GetContainer returns the process-wide container
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register stores service under name, replacing any previous instance
func (c *Container) Register(name string, service interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.services[name] = service
}

// Get returns the instance registered under name, or nil
func (c *Container) Get(name string) interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.services[name]
}

func (c *Container) Has(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.services[name]
	return exists
}

func (c *Container) Remove(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.services, name)
}

// GetNames returns the registered names, sorted
func (c *Container) GetNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fetches name from c as a T
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	service := c.Get(name)
	if service == nil {
		return zero, fmt.Errorf("service %q is not registered", name)
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %q has type %T, want %T", name, service, zero)
	}
	return typed, nil
}
