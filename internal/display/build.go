package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/epics-extensions/qtedm-runtime/internal/adl"
	"github.com/epics-extensions/qtedm-runtime/internal/channel"
	"github.com/epics-extensions/qtedm-runtime/internal/composite"
	"github.com/epics-extensions/qtedm-runtime/internal/coordinator"
	"github.com/epics-extensions/qtedm-runtime/internal/palette"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/control"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/graphic"
	"github.com/epics-extensions/qtedm-runtime/internal/runtime/monitor"
)

// Builder turns parsed ADL nodes into a live Display. It holds the
// shared singletons every widget runtime needs.
type Builder struct {
	Manager     *channel.Manager
	Coordinator *coordinator.Coordinator
}

// graphicElementNames lists the shape/text/image keywords that share
// C7's runtime template (§4.4).
var graphicElementNames = map[string]bool{
	"rectangle": true, "oval": true, "arc": true,
	"polygon": true, "polyline": true, "text": true, "image": true,
}

// Load reads and parses path, then builds a Display from it.
func Load(path string, b *Builder) (*Display, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	nodes, err := adl.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("display: %s: %w", path, err)
	}
	return b.Build(path, nodes)
}

// Build constructs a Display from already-parsed top-level nodes.
func (b *Builder) Build(path string, nodes []*adl.Node) (*Display, error) {
	d := &Display{Path: path}
	for _, n := range nodes {
		switch n.Name {
		case "file":
			d.Name = n.AttrString("name", "")
		case "display":
			d.Bounds = n.ObjectRect()
		default:
			if w := b.buildWidget(n); w != nil {
				d.Widgets = append(d.Widgets, w)
			}
		}
	}
	d.applyZOrder()
	return d, nil
}

// buildWidget dispatches one top-level element node to its runtime
// constructor. Unknown element keywords are skipped (§7 kind 1: a
// configuration-level problem that does not halt loading).
func (b *Builder) buildWidget(n *adl.Node) *Widget {
	switch {
	case graphicElementNames[n.Name]:
		return b.buildGraphic(n)
	case n.Name == "meter" || n.Name == "bar" || n.Name == "scale":
		return b.buildMonitor(n)
	case n.Name == "slider" || n.Name == "wheel switch":
		return b.buildNumericInput(n)
	case n.Name == "text entry":
		return b.buildTextEntry(n)
	case n.Name == "choice button" || n.Name == "menu":
		return b.buildEnumInput(n)
	case n.Name == "message button":
		return b.buildMessageButton(n)
	case n.Name == "related display":
		return b.buildRelatedDisplay(n)
	case n.Name == "shell command":
		return b.buildShellCommand(n)
	case n.Name == "text monitor":
		return b.buildTextMonitor(n)
	case n.Name == "byte":
		return b.buildByteMonitor(n)
	case n.Name == "strip chart":
		return b.buildStripChart(n)
	case n.Name == "cartesian plot":
		return b.buildCartesianPlot(n)
	case n.Name == "heatmap":
		return b.buildHeatmap(n)
	case n.Name == "composite":
		return b.buildComposite(n)
	default:
		return nil
	}
}

// channelSlots reads the five dynamic-attribute channel names
// (chan, chanB, chanC, chanD, chanE → A..E) from a node's "dynamic
// attribute" block, if present.
func channelSlots(n *adl.Node) [5]string {
	var slots [5]string
	dyn := n.Child("dynamic attribute")
	if dyn == nil {
		return slots
	}
	names := [5]string{"chan", "chanB", "chanC", "chanD", "chanE"}
	for i, key := range names {
		if v, ok := dyn.Attr(key); ok {
			slots[i] = v
		}
	}
	return slots
}

func dynamicConfig(n *adl.Node) (graphic.ColorMode, graphic.VisibilityMode, string) {
	dyn := n.Child("dynamic attribute")
	if dyn == nil {
		return graphic.ColorStatic, graphic.VisibilityStatic, ""
	}
	return parseColorMode(dyn.AttrString("clr", "static")),
		parseVisMode(dyn.AttrString("vis", "static")),
		dyn.AttrString("calc", "")
}

func parseColorMode(s string) graphic.ColorMode {
	switch strings.ToLower(s) {
	case "alarm":
		return graphic.ColorAlarm
	case "discrete":
		return graphic.ColorDiscrete
	default:
		return graphic.ColorStatic
	}
}

func parseVisMode(s string) graphic.VisibilityMode {
	switch strings.ToLower(s) {
	case "if not zero":
		return graphic.VisibilityIfNotZero
	case "if zero":
		return graphic.VisibilityIfZero
	case "calc":
		return graphic.VisibilityCalc
	default:
		return graphic.VisibilityStatic
	}
}

// staticColor reads a "basic attribute" block's palette-indexed color,
// falling back to def for an absent block or out-of-range index (§7
// kind 1).
func staticColor(n *adl.Node, def palette.RGB) palette.RGB {
	attrNode := n.Child("basic attribute")
	if attrNode == nil {
		return def
	}
	idx := attrNode.AttrInt("clr", -1)
	if c, ok := palette.Color(idx); ok {
		return c
	}
	return def
}

func isDynamic(colorMode graphic.ColorMode, visMode graphic.VisibilityMode, channels [5]string) bool {
	if colorMode != graphic.ColorStatic || visMode != graphic.VisibilityStatic {
		return true
	}
	return anyChannel(channels)
}

func anyChannel(ch [5]string) bool {
	for _, c := range ch {
		if c != "" {
			return true
		}
	}
	return false
}

func (b *Builder) buildGraphic(n *adl.Node) *Widget {
	colorMode, visMode, calcExpr := dynamicConfig(n)
	cfg := graphic.Config{
		Channels:    channelSlots(n),
		ColorMode:   colorMode,
		VisMode:     visMode,
		CalcExpr:    calcExpr,
		StaticColor: staticColor(n, palette.RGB{}),
	}
	rt := graphic.New(cfg, b.Manager, newRepaintProxy(), nil)
	class := composite.ClassStatic
	if isDynamic(colorMode, visMode, cfg.Channels) {
		class = composite.ClassDynamic
	}
	return &Widget{
		Kind:  kindForGraphic(n.Name),
		Rect:  n.ObjectRect(),
		Elem:  newLeaf(class, rt.Start, rt.Stop, nil),
		Extra: rt,
	}
}

func kindForGraphic(name string) Kind {
	switch name {
	case "rectangle":
		return KindRectangle
	case "oval":
		return KindOval
	case "arc":
		return KindArc
	case "polygon":
		return KindPolygon
	case "polyline":
		return KindPolyline
	case "text":
		return KindText
	case "image":
		return KindImage
	default:
		return Kind(name)
	}
}

func childAttr(n *adl.Node, childName, attr string) string {
	c := n.Child(childName)
	if c == nil {
		return ""
	}
	return c.AttrString(attr, "")
}

func (b *Builder) buildMonitor(n *adl.Node) *Widget {
	pv := childAttr(n, "monitor", "chan")
	rt := monitor.New(pv, b.Manager, newRepaintProxy(), nil)
	kind := KindMeter
	switch n.Name {
	case "bar":
		kind = KindBar
	case "scale":
		kind = KindScale
	}
	return &Widget{Kind: kind, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildNumericInput(n *adl.Node) *Widget {
	pv := childAttr(n, "control", "chan")
	kind := KindSlider
	if n.Name == "wheel switch" {
		kind = KindWheelSwitch
	}
	rt := control.NewNumericInput(pv, string(kind), b.Manager)
	return &Widget{Kind: kind, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildTextEntry(n *adl.Node) *Widget {
	pv := childAttr(n, "control", "chan")
	if strings.EqualFold(n.AttrString("format", ""), "string") {
		rt := control.NewStringInput(pv, b.Manager)
		return &Widget{Kind: KindTextEntry, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
	}
	rt := control.NewNumericInput(pv, string(KindTextEntry), b.Manager)
	return &Widget{Kind: KindTextEntry, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildEnumInput(n *adl.Node) *Widget {
	pv := childAttr(n, "control", "chan")
	kind := KindChoiceButton
	if n.Name == "menu" {
		kind = KindMenu
	}
	rt := control.NewEnumInput(pv, string(kind), b.Manager)
	return &Widget{Kind: kind, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildMessageButton(n *adl.Node) *Widget {
	pv := childAttr(n, "control", "chan")
	press, hasPress := n.Attr("press_msg")
	release, hasRelease := n.Attr("release_msg")
	rt := control.NewMessageButton(pv, press, release, hasPress, hasRelease, b.Manager)
	return &Widget{Kind: KindMessageButton, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildRelatedDisplay(n *adl.Node) *Widget {
	var entries []control.RelatedDisplayEntry
	for _, dnode := range n.ChildrenNamed("display") {
		mode := control.ModeAdd
		switch strings.ToLower(dnode.AttrString("policy", "add")) {
		case "replace":
			mode = control.ModeReplace
		case "new":
			mode = control.ModeNew
		}
		entries = append(entries, control.RelatedDisplayEntry{
			Label:       dnode.AttrString("label", ""),
			DisplayPath: dnode.AttrString("name", ""),
			Mode:        mode,
		})
	}
	rt := control.NewRelatedDisplay(entries, nil)
	return &Widget{Kind: KindRelatedDisplay, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, nil, nil, nil), Extra: rt}
}

func (b *Builder) buildShellCommand(n *adl.Node) *Widget {
	var args []string
	for _, c := range n.ChildrenNamed("command") {
		args = append(args, c.AttrString("args", ""))
	}
	rt := control.NewShellCommand(n.AttrString("command", ""), args)
	return &Widget{Kind: KindShellCommand, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, nil, nil, nil), Extra: rt}
}

func (b *Builder) buildTextMonitor(n *adl.Node) *Widget {
	pv := childAttr(n, "monitor", "chan")
	rt := control.NewTextMonitor(pv, b.Manager)
	return &Widget{Kind: KindTextMonitor, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildByteMonitor(n *adl.Node) *Widget {
	pv := childAttr(n, "monitor", "chan")
	rt := control.NewByteMonitor(pv, b.Manager)
	return &Widget{Kind: KindByteMonitor, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildStripChart(n *adl.Node) *Widget {
	var pens []string
	for _, p := range n.ChildrenNamed("pen") {
		pens = append(pens, p.AttrString("chan", ""))
	}
	timeSpan := time.Duration(n.AttrFloat("period", 60) * float64(time.Second))
	updatePeriod := time.Duration(n.AttrFloat("update_period", 1) * float64(time.Second))
	rt := control.NewStripChart(pens, timeSpan, updatePeriod, b.Manager, newRepaintProxy())
	return &Widget{Kind: KindStripChart, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildCartesianPlot(n *adl.Node) *Widget {
	var specs []control.TraceSpec
	for _, t := range n.ChildrenNamed("trace") {
		specs = append(specs, control.TraceSpec{XName: t.AttrString("xdata", ""), YName: t.AttrString("ydata", "")})
	}
	rt := control.NewCartesianPlot(specs, b.Manager, newRepaintProxy())
	return &Widget{Kind: KindCartesianPlot, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildHeatmap(n *adl.Node) *Widget {
	data := childAttr(n, "monitor", "chan")
	width := n.AttrString("width_chan", "")
	height := n.AttrString("height_chan", "")
	rt := control.NewHeatmap(data, width, height, b.Manager, newRepaintProxy())
	return &Widget{Kind: KindHeatmap, Rect: n.ObjectRect(), Elem: newLeaf(composite.ClassInteractive, rt.Start, rt.Stop, nil), Extra: rt}
}

func (b *Builder) buildComposite(n *adl.Node) *Widget {
	var children []composite.Element
	if childrenBlock := n.Child("children"); childrenBlock != nil {
		for _, c := range childrenBlock.Children {
			if cw := b.buildWidget(c); cw != nil {
				children = append(children, cw)
			}
		}
	}
	colorMode, visMode, calcExpr := dynamicConfig(n)
	cfg := graphic.Config{Channels: channelSlots(n), ColorMode: colorMode, VisMode: visMode, CalcExpr: calcExpr}
	comp := composite.New(cfg, children, true, b.Manager, newRepaintProxy(), nil, nil)
	return &Widget{Kind: KindComposite, Rect: n.ObjectRect(), Elem: comp, Extra: comp}
}
