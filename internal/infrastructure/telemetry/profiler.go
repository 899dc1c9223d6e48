package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Label keys attached to profiling samples
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelOperation = "operation"
	ProfilingLabelJob       = "job"
)

// MaxLabelValueLength caps label values to keep profile cardinality bounded.
const MaxLabelValueLength = 128

type ProfilerConfig struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
}

// Profiler owns the Pyroscope session. The zero value, and any profiler
// built with Enabled false, does nothing.
type Profiler struct {
	session *pyroscope.Profiler
	once    sync.Once
}

// NewProfiler starts continuous profiling when cfg.Enabled is set.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	if !cfg.Enabled {
		return &Profiler{}, nil
	}
	switch {
	case cfg.ServerAddress == "":
		return nil, errors.New("profiler server address is required when profiling is enabled")
	case cfg.ApplicationName == "":
		return nil, errors.New("profiler application name is required when profiling is enabled")
	}

	tags := make(map[string]string, 1)
	if host, err := os.Hostname(); err == nil && host != "" {
		tags["hostname"] = host
	}

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          zapPyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	logger.Info("Continuous profiling enabled",
		zap.String("server", cfg.ServerAddress),
		zap.String("application", cfg.ApplicationName))
	return &Profiler{session: session}, nil
}

// Stop flushes pending profiles. Only the first call does any work.
func (p *Profiler) Stop() error {
	var err error
	p.once.Do(func() {
		if p.session != nil {
			err = p.session.Stop()
		}
	})
	if err != nil {
		return fmt.Errorf("stop pyroscope: %w", err)
	}
	return nil
}

// IsEnabled reports whether profiles are being uploaded
func (p *Profiler) IsEnabled() bool {
	return p != nil && p.session != nil
}

// WithProfilingLabels runs fn with pprof labels attached so profiles can be
// sliced by route, job or operation. Empty keys and values are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens labels into sorted key/value pairs.
func labelPairs(labels map[string]string) []string {
	var keys []string
	for k, v := range labels {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := labels[k]
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}

// zapPyroscopeLogger satisfies pyroscope.Logger
type zapPyroscopeLogger struct {
	*zap.SugaredLogger
}
