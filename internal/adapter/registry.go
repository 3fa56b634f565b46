package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/riclovato/furia-chatbot/internal/interfaces"

	"github.com/sirupsen/logrus"
)

var (
	factoryMu       sync.RWMutex
	factoryRegistry = make(map[string]interfaces.FetcherFactory)
)

// Register is called from fetcher packages' init functions.
func Register(name string, factory interfaces.FetcherFactory) {
	if factory == nil {
		panic(fmt.Sprintf("fetcher %s: nil factory", name))
	}
	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("fetcher %s registered twice, replacing", name)
	}
	factoryRegistry[name] = factory
}

// GetFactory returns the factory registered under name.
func GetFactory(name string) (interfaces.FetcherFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories returns registered fetcher names, sorted.
func ListFactories() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factoryRegistry))
	for n := range factoryRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
