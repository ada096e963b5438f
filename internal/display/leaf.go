package display

import "github.com/epics-extensions/qtedm-runtime/internal/composite"

// leaf adapts a control/graphic/monitor runtime's Start/Stop pair to the
// composite.Element interface so the z-order and execute-mode cascade
// (§4.7) can treat every widget kind uniformly. Leaf widgets have no
// children of their own, so SetVisible just records the flag; nothing
// in this package paints pixels (out of scope per §1), so there is
// nothing further to propagate.
type leaf struct {
	class   composite.Classification
	start   func()
	stop    func()
	visible bool
}

func newLeaf(class composite.Classification, start, stop func(), _ any) *leaf {
	if start == nil {
		start = func() {}
	}
	if stop == nil {
		stop = func() {}
	}
	return &leaf{class: class, start: start, stop: stop, visible: true}
}

func (l *leaf) SetExecute(on bool) {
	if on {
		l.start()
	} else {
		l.stop()
	}
}

func (l *leaf) Classify() composite.Classification { return l.class }

func (l *leaf) SetVisible(v bool) { l.visible = v }

// repaintProxy gives a runtime (graphic.Runtime, monitor.Runtime, a
// strip chart, ...) something to call through the update coordinator:
// identity for dedup, nothing to paint (out of scope per §1).
type repaintProxy struct{}

func (repaintProxy) Repaint() {}

func newRepaintProxy() *repaintProxy { return &repaintProxy{} }
