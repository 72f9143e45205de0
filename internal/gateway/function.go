package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	processOnce sync.Once
	processSet  *Set
	processErr  error
)

// ProcessSet builds the resource set from the environment once per process.
// Serverless entry points share it across warm invocations.
func ProcessSet() (*Set, error) {
	processOnce.Do(func() {
		processSet, processErr = loadSet(prometheus.DefaultRegisterer)
	})
	return processSet, processErr
}

func loadSet(registry prometheus.Registerer) (*Set, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return FromConfig(cfg, logger.New(cfg.Logging), registry)
}

// Function returns the process-wide resource for a resource or function
// name. It never fails: when the set cannot be built, the returned resource
// answers preflight with 204 and every other request with the build error.
func Function(name string) *Resource {
	set, err := ProcessSet()
	if err != nil {
		logrus.WithError(err).WithField("function", name).Error("Failed to initialize function")
		return unavailable(name, err)
	}
	r, ok := set.Get(name)
	if !ok {
		err := fmt.Errorf("unknown resource %q", name)
		logrus.WithError(err).Error("Failed to initialize function")
		return unavailable(name, err)
	}
	return r
}

// unavailable builds a resource that fails every invocation with err
func unavailable(name string, err error) *Resource {
	function, ok := FunctionNames[name]
	if !ok {
		function = name
		for resource, fn := range FunctionNames {
			if fn == name {
				name = resource
			}
		}
	}
	r := New(config.BackendConfig{}).NewResource(name, function, false,
		func(ctx context.Context, req Request) (interface{}, error) {
			return nil, err
		})
	r.failKind = KindConfiguration
	return r
}
