// Package callbacks wires dashboard controls to the chart builders.
package callbacks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/dataset"
	"github.com/wonny/dietdash/pkg/logger"
	"github.com/wonny/dietdash/pkg/redis"
)

// Outputs maps output ids to their new value (figure, table or text)
type Outputs map[contracts.ControlID]interface{}

// Result is a dispatch result with every output already JSON encoded
type Result map[contracts.ControlID]json.RawMessage

// Update carries changed control values
type Update struct {
	Inputs map[contracts.ControlID]json.RawMessage `json:"inputs"`
}

// HandlerFunc computes a callback's outputs from its input values
type HandlerFunc func(ctx context.Context, ds *dataset.Dataset, in Values) (Outputs, error)

// Callback binds input controls to outputs
type Callback struct {
	Name    string
	Inputs  []contracts.ControlID
	Outputs []contracts.ControlID
	TTL     time.Duration
	Handler HandlerFunc
}

// Options configures a Registry
type Options struct {
	Cache    *redis.Cache // nil disables caching
	Defaults map[contracts.ControlID]json.RawMessage
	Logger   *logger.Logger

	// TTL replaces the hour-long TTL of callbacks over static data
	TTL time.Duration
}

// Registry dispatches control updates to callbacks
// ⭐ SSOT: the only place inputs are bound to outputs
type Registry struct {
	ds        *dataset.Dataset
	cache     *redis.Cache
	defaults  map[contracts.ControlID]json.RawMessage
	log       *logger.Logger
	callbacks []Callback
	inputs    map[contracts.ControlID][]int // input id -> callback indexes
}

// New builds a registry holding the dashboard callbacks
func New(ds *dataset.Dataset, opts Options) *Registry {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := &Registry{
		ds:       ds,
		cache:    opts.Cache,
		defaults: opts.Defaults,
		log:      log.Component("callbacks"),
		inputs:   make(map[contracts.ControlID][]int),
	}
	for _, cb := range dashboardCallbacks() {
		if opts.TTL > 0 && cb.TTL == redis.TTLLong {
			cb.TTL = opts.TTL
		}
		r.Register(cb)
	}
	return r
}

// Register adds a callback
func (r *Registry) Register(cb Callback) {
	idx := len(r.callbacks)
	r.callbacks = append(r.callbacks, cb)
	for _, id := range cb.Inputs {
		r.inputs[id] = append(r.inputs[id], idx)
	}
}

// Callbacks returns the registered callbacks in registration order
func (r *Registry) Callbacks() []Callback {
	return append([]Callback(nil), r.callbacks...)
}

// Dispatch runs every callback that has a changed input. Inputs not in
// the update take their default value.
func (r *Registry) Dispatch(ctx context.Context, u Update) (Result, error) {
	if len(u.Inputs) == 0 {
		return nil, fmt.Errorf("%w: update has no inputs", contracts.ErrInvalidControl)
	}

	fired := make(map[int]bool)
	for id := range u.Inputs {
		idxs, ok := r.inputs[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownControl, id)
		}
		for _, i := range idxs {
			fired[i] = true
		}
	}

	order := make([]int, 0, len(fired))
	for i := range fired {
		order = append(order, i)
	}
	sort.Ints(order)

	result := make(Result)
	for _, i := range order {
		if err := r.run(ctx, r.callbacks[i], u.Inputs, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Initial runs every callback with default values: the page's first
// render
func (r *Registry) Initial(ctx context.Context) (Result, error) {
	result := make(Result)
	for _, cb := range r.callbacks {
		if err := r.run(ctx, cb, nil, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *Registry) run(ctx context.Context, cb Callback, changed map[contracts.ControlID]json.RawMessage, into Result) error {
	start := time.Now()

	values := make(Values, len(cb.Inputs))
	for _, id := range cb.Inputs {
		if raw, ok := changed[id]; ok {
			values[id] = raw
		} else if raw, ok := r.defaults[id]; ok {
			values[id] = raw
		}
	}

	key, err := cacheKey(cb, values)
	if err != nil {
		return err
	}

	var out Result
	compute := func() (interface{}, error) {
		return cb.Handler(ctx, r.ds, values)
	}

	if r.cache != nil {
		err = r.cache.GetOrSet(ctx, key, &out, cb.TTL, compute)
	} else {
		out, err = encode(compute)
	}
	if err != nil {
		r.log.WithError(err).WithField("callback", cb.Name).Debug("Callback rejected")
		return fmt.Errorf("%s: %w", cb.Name, err)
	}

	for id, raw := range out {
		into[id] = raw
	}

	r.log.WithFields(map[string]interface{}{
		"callback": cb.Name,
		"duration": time.Since(start),
	}).Debug("Callback completed")
	return nil
}

func encode(fn func() (interface{}, error)) (Result, error) {
	v, err := fn()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode outputs: %w", err)
	}
	var out Result
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode outputs: %w", err)
	}
	return out, nil
}

// cacheKey derives a stable key from the outputs and compacted inputs
func cacheKey(cb Callback, values Values) (string, error) {
	canonical := make(map[string]json.RawMessage, len(values))
	for id, raw := range values {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", fmt.Errorf("%w: %s: %v", contracts.ErrInvalidControl, id, err)
		}
		canonical[string(id)] = buf.Bytes()
	}

	// map keys marshal sorted
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}

	outs := make([]string, len(cb.Outputs))
	for i, id := range cb.Outputs {
		outs[i] = string(id)
	}
	return redis.FigureKey(strings.Join(outs, ","), string(data)), nil
}
