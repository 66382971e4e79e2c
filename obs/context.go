package obs

import "time"

// Context is the hook surface the evaluator reports through. BaseContext is
// a zero-cost no-op implementation; AnnotatedContext routes calls into a
// Collector. Mirrors the BaseContext/AnnotatedContext split in
// janus-datalog's datalog/executor/context.go.
type Context interface {
	QueryBegin(treeSize int)
	QueryEnd(skipped bool)
	PhaseBegin(phase string) time.Time
	PhaseEnd(phase string, start time.Time)
	BindStepDone(nodeIndex int, stepKind string, produced int)
	CapExceeded(kind string)
	Collector() *Collector
}

// BaseContext performs no tracking. Used when no Handler is installed so
// the evaluator's hot path allocates nothing for observability.
type BaseContext struct{}

func (BaseContext) QueryBegin(int)                                {}
func (BaseContext) QueryEnd(bool)                                  {}
func (BaseContext) PhaseBegin(string) time.Time                   { return time.Time{} }
func (BaseContext) PhaseEnd(string, time.Time)                    {}
func (BaseContext) BindStepDone(int, string, int)                 {}
func (BaseContext) CapExceeded(string)                            {}
func (BaseContext) Collector() *Collector                         { return nil }

// AnnotatedContext routes hook calls into a Collector.
type AnnotatedContext struct {
	collector *Collector
}

func (a *AnnotatedContext) QueryBegin(treeSize int) {
	data := a.collector.GetDataMap()
	data["tree_size"] = treeSize
	a.collector.Add(Event{Name: QueryInvoked, Start: time.Now(), Data: data})
}

func (a *AnnotatedContext) QueryEnd(skipped bool) {
	data := a.collector.GetDataMap()
	data["bindings_skipped"] = skipped
	a.collector.Add(Event{Name: QueryComplete, Start: time.Now(), Data: data})
}

func (a *AnnotatedContext) PhaseBegin(phase string) time.Time {
	start := time.Now()
	data := a.collector.GetDataMap()
	data["phase"] = phase
	a.collector.Add(Event{Name: PhaseBegin, Start: start, Data: data})
	return start
}

func (a *AnnotatedContext) PhaseEnd(phase string, start time.Time) {
	data := a.collector.GetDataMap()
	data["phase"] = phase
	a.collector.AddTiming(PhaseEnd, start, data)
}

func (a *AnnotatedContext) BindStepDone(nodeIndex int, stepKind string, produced int) {
	data := a.collector.GetDataMap()
	data["node"] = nodeIndex
	data["step"] = stepKind
	data["produced"] = produced
	a.collector.Add(Event{Name: BindStep, Start: time.Now(), Data: data})
}

func (a *AnnotatedContext) CapExceeded(kind string) {
	data := a.collector.GetDataMap()
	data["kind"] = kind
	a.collector.Add(Event{Name: CapExceeded, Start: time.Now(), Data: data})
}

func (a *AnnotatedContext) Collector() *Collector {
	return a.collector
}

// NewContext returns a BaseContext when handler is nil, else a Collector-backed
// AnnotatedContext.
func NewContext(handler Handler) Context {
	if handler == nil {
		return BaseContext{}
	}
	return &AnnotatedContext{collector: NewCollector(handler)}
}
