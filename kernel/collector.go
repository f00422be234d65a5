package kernel

// EventCollector is an ordered bag of EventIds that prunes itself of
// already-dispatched ids without scanning its whole contents on every
// insert: a sweep only runs once the held count crosses a growing
// threshold, so steady-state insert stays amortized O(1). Dropping a
// collector cancels every id it still holds, so a struct embedding one
// never leaks a live event past its own lifetime.
type EventCollector struct {
	engine *Engine
	ids    []EventId

	nextCleanup int
}

const (
	collectorStartThreshold = 8
	collectorCapThreshold   = 1024
)

// NewEventCollector constructs an EventCollector bound to engine, whose
// IsExpired is used to decide which held ids are stale.
func NewEventCollector(engine *Engine) *EventCollector {
	return &EventCollector{engine: engine, nextCleanup: collectorStartThreshold}
}

// Track appends id to the held set, running an amortized sweep first if
// the set has grown past its current cleanup threshold.
func (c *EventCollector) Track(id EventId) {
	if len(c.ids) >= c.nextCleanup {
		c.sweep()
		grown := 2 * len(c.ids)
		if grown < collectorStartThreshold {
			grown = collectorStartThreshold
		}
		if grown > collectorCapThreshold {
			grown = collectorCapThreshold
		}
		c.nextCleanup = grown
	}
	c.ids = append(c.ids, id)
}

// sweep drops every id that has already expired, preserving the relative
// order of the ids that remain.
func (c *EventCollector) sweep() {
	kept := c.ids[:0]
	for _, id := range c.ids {
		if !c.engine.IsExpired(id) {
			kept = append(kept, id)
		}
	}
	c.ids = kept
}

// Len reports the number of ids currently held, including any not yet
// swept that have since expired.
func (c *EventCollector) Len() int {
	return len(c.ids)
}

// CancelAll cancels every id currently held and empties the set. A
// collector may be reused afterwards.
func (c *EventCollector) CancelAll() {
	for _, id := range c.ids {
		c.engine.Cancel(id)
	}
	c.ids = c.ids[:0]
	c.nextCleanup = collectorStartThreshold
}

// Drop cancels every still-held id and releases the collector's storage.
// Call this from the owning struct's teardown path (e.g. a
// ScheduleDestroy closure) so no tracked event outlives its owner.
func (c *EventCollector) Drop() {
	c.CancelAll()
	c.ids = nil
}
