package workflow

import (
	"sort"

	"pantrypal/internal/jobs"
	"pantrypal/internal/stage"
)

// HandlerSet bundles the concrete handlers the dispatcher routes to. A nil
// handler leaves its job type unregistered.
type HandlerSet struct {
	Item   stage.Handler
	Recipe stage.Handler
	Image  stage.Handler
}

// ConfigureHandlers registers every non-nil handler in set.
func (d *Dispatcher) ConfigureHandlers(set HandlerSet) {
	if set.Item != nil {
		d.Register(jobs.TypeItem, set.Item)
	}
	if set.Recipe != nil {
		d.Register(jobs.TypeRecipe, set.Recipe)
	}
	if set.Image != nil {
		d.Register(jobs.TypeImage, set.Image)
	}
}

// Register routes jobType to handler, replacing any previous registration.
func (d *Dispatcher) Register(jobType jobs.Type, handler stage.Handler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	d.handlers[jobType] = handler
}

func (d *Dispatcher) handlerFor(jobType jobs.Type) (stage.Handler, bool) {
	d.handlersMu.RLock()
	defer d.handlersMu.RUnlock()
	h, ok := d.handlers[jobType]
	return h, ok && h != nil
}

func (d *Dispatcher) registeredTypes() []jobs.Type {
	d.handlersMu.RLock()
	defer d.handlersMu.RUnlock()
	types := make([]jobs.Type, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
