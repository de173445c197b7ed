package algo

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chazu/ddcable/pkg/graph"
)

// ErrUnknownAlgorithm is returned by New for names nobody registered.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Context is where an algorithm invocation sits in the description: the
// logical part it builds into and the namespace new names are created in.
type Context struct {
	Parent    graph.Name
	Namespace string
}

// Algorithm builds a piece of geometry into a registry. Initialize reads
// and checks the arguments; Execute does the construction. An algorithm
// instance is used for one invocation.
type Algorithm interface {
	Initialize(args *Arguments, ctx Context) error
	Execute(reg graph.Registry) error
}

// Constructor creates a fresh algorithm instance.
type Constructor func(logger *zap.SugaredLogger) Algorithm

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register makes an algorithm available under name, conventionally
// "namespace:AlgorithmName". It panics if name is already taken or the
// constructor is nil, since both are programming errors caught at init.
func Register(name string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if c == nil {
		panic(errors.Errorf("algorithm %q registered with nil constructor", name))
	}
	if _, dup := registry[name]; dup {
		panic(errors.Errorf("algorithm %q registered twice", name))
	}
	registry[name] = c
}

// New creates an instance of the named algorithm.
func New(name string, logger *zap.SugaredLogger) (Algorithm, error) {
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return c(logger.Named(name)), nil
}

// Registered returns the names of all registered algorithms, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run creates, initializes and executes the named algorithm in one step.
func Run(name string, args *Arguments, ctx Context, reg graph.Registry, logger *zap.SugaredLogger) error {
	a, err := New(name, logger)
	if err != nil {
		return err
	}
	if err := a.Initialize(args, ctx); err != nil {
		return errors.Wrapf(err, "%s: initialize", name)
	}
	if err := a.Execute(reg); err != nil {
		return errors.Wrapf(err, "%s: execute", name)
	}
	return nil
}
