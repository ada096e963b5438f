// Package composite implements C10: the composite widget tree, its
// execute-mode cascade, channel-gated visibility, and z-order discipline
// (§4.7).
package composite

import (
	"sync"
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/palette"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/graphic"
)

// Classification is a child's z-order bucket (§4.7).
type Classification int

const (
	ClassStatic Classification = iota
	ClassDynamic
	ClassInteractive
)

// Element is anything a Composite can own as a child: a leaf widget
// runtime (graphic/monitor/control) or another Composite.
type Element interface {
	SetExecute(on bool)
	Classify() Classification
	SetVisible(visible bool)
}

// reorderDebounce coalesces bursts of z-order-affecting changes to the
// next UI tick (§4.7 "debounced to the next UI tick").
const reorderDebounce = 16 * time.Millisecond

// Composite is C10. It reuses the graphic-element runtime template (C7)
// for its own channel-gated color/visibility computation, since §4.7
// defines the composite's "Runtime" visibility exactly as §4.4 does for a
// graphic element applied to the composite itself.
type Composite struct {
	mu sync.Mutex

	cfg     graphic.Config
	runtime *graphic.Runtime
	mgr     *channel.Manager
	cw      coordinator.Widget

	children []Element

	designVisible  bool
	executing      bool
	hasChannel     bool
	connectedAll   bool
	runtimeVisible bool

	onPaintPlaceholder func(visible bool)
	onReorder          func(order []Element)

	reorderTimer *time.Timer
}

// New constructs a Composite. designVisible is the edit-time visibility
// flag recorded before execute mode is entered.
func New(cfg graphic.Config, children []Element, designVisible bool, mgr *channel.Manager, cw coordinator.Widget, onPaintPlaceholder func(bool), onReorder func([]Element)) *Composite {
	c := &Composite{
		cfg:                cfg,
		children:           children,
		designVisible:      designVisible,
		mgr:                mgr,
		cw:                 cw,
		onPaintPlaceholder: onPaintPlaceholder,
		onReorder:          onReorder,
		hasChannel:         hasAnyChannel(cfg),
	}
	c.runtime = graphic.New(cfg, mgr, cw, c.onRuntimeUpdate)
	return c
}

func hasAnyChannel(cfg graphic.Config) bool {
	for _, name := range cfg.Channels {
		if name != "" {
			return true
		}
	}
	return false
}

// Classify implements Element: a composite is static if it and every
// child are static, dynamic if it or any child is dynamic, interactive
// classification never applies to a composite itself (§4.7 bucket 1/2).
func (c *Composite) Classify() Classification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasChannel || c.cfg.ColorMode != graphic.ColorStatic || c.cfg.VisMode != graphic.VisibilityStatic {
		return ClassDynamic
	}
	for _, ch := range c.children {
		if ch.Classify() != ClassStatic {
			return ClassDynamic
		}
	}
	return ClassStatic
}

// SetExecute implements §4.7's execute-mode propagation: recursively
// switch every child into execute mode, then apply the composite's own
// runtime-visibility policy against the design visibility given to New.
func (c *Composite) SetExecute(on bool) {
	c.mu.Lock()
	c.executing = on
	c.mu.Unlock()

	for _, ch := range c.children {
		ch.SetExecute(on)
	}

	if on {
		c.runtime.Start()
		if !c.hasChannel {
			c.applyPolicy()
		}
	} else {
		c.runtime.Stop()
		c.mu.Lock()
		c.connectedAll = false
		c.mu.Unlock()
	}
	c.scheduleReorder()
}

func (c *Composite) onRuntimeUpdate(s graphic.State) {
	c.mu.Lock()
	c.connectedAll = s.Connected
	c.runtimeVisible = s.Visible
	c.mu.Unlock()
	c.applyPolicy()
}

// SetVisible lets a parent composite force this composite (as a child)
// hidden/shown, per the design-time/runtime table (§4.7).
func (c *Composite) SetVisible(visible bool) {
	c.mu.Lock()
	c.designVisible = c.designVisible && visible // parent's forced-hidden always wins
	c.mu.Unlock()
	c.applyPolicy()
}

// applyPolicy implements §4.7's channel-gated visibility table.
func (c *Composite) applyPolicy() {
	c.mu.Lock()
	executing := c.executing
	hasChannel := c.hasChannel
	connected := c.connectedAll
	designVisible := c.designVisible
	runtimeVisible := c.runtimeVisible
	c.mu.Unlock()

	if !executing {
		c.setChildrenVisible(designVisible)
		c.paintPlaceholder(false)
		return
	}
	if !hasChannel {
		c.setChildrenVisible(designVisible)
		c.paintPlaceholder(false)
		return
	}
	if !connected {
		c.setChildrenVisible(false)
		c.paintPlaceholder(true)
		return
	}
	c.paintPlaceholder(false)
	c.setChildrenVisible(designVisible && runtimeVisible)
	c.scheduleReorder() // connection just resolved: raise to top of parent stack
}

func (c *Composite) setChildrenVisible(visible bool) {
	for _, ch := range c.children {
		ch.SetVisible(visible)
	}
}

func (c *Composite) paintPlaceholder(visible bool) {
	if c.onPaintPlaceholder != nil {
		c.onPaintPlaceholder(visible)
	}
}

// PlaceholderColor is always white (§4.7's not-yet-connected placeholder).
func PlaceholderColor() palette.RGB { return palette.Disconnected }

// ZOrder computes the three-bucket stacking order, preserving declaration
// order within each bucket (§4.7).
func (c *Composite) ZOrder() []Element {
	var static, dynamic, interactive []Element
	for _, ch := range c.children {
		switch ch.Classify() {
		case ClassStatic:
			static = append(static, ch)
		case ClassDynamic:
			dynamic = append(dynamic, ch)
		case ClassInteractive:
			interactive = append(interactive, ch)
		}
	}
	order := make([]Element, 0, len(c.children))
	order = append(order, static...)
	order = append(order, dynamic...)
	order = append(order, interactive...)
	return order
}

// scheduleReorder debounces a z-order recomputation to the next UI tick.
func (c *Composite) scheduleReorder() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reorderTimer != nil {
		c.reorderTimer.Stop()
	}
	c.reorderTimer = time.AfterFunc(reorderDebounce, func() {
		if c.onReorder != nil {
			c.onReorder(c.ZOrder())
		}
	})
}

// Children returns the composite's children in declaration order.
func (c *Composite) Children() []Element { return c.children }
