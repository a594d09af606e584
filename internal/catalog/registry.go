package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Connector)
)

// Register makes a connector available under name. It panics if name is
// registered twice or connector is nil.
func Register(name string, connector Connector) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if connector == nil {
		panic("catalog: Register connector is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("catalog: Register called twice for driver " + name)
	}
	drivers[name] = connector
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Driver returns the connector registered under name.
func Driver(name string) (Connector, error) {
	driversMu.RLock()
	connector, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownDriver, name, Drivers())
	}
	return connector, nil
}

// Open opens a session for creds with the named driver.
func Open(ctx context.Context, driver string, creds Credentials) (Session, error) {
	connector, err := Driver(driver)
	if err != nil {
		return nil, err
	}
	return connector.Open(ctx, creds)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, creds Credentials) (Session, error)

// Open implements Connector.
func (f ConnectorFunc) Open(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}
