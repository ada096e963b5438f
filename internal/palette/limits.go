package palette

import "strconv"

// LimitSource selects where a display low/high/precision value comes from
// (§3 PvLimits).
type LimitSource int

const (
	SourceChannel LimitSource = iota
	SourceDefault
	SourceUser
)

// Limit is one of {low, high, precision}'s resolution configuration: a
// source selector plus the value to fall back on when the source isn't
// Channel, or Channel control info hasn't arrived yet.
type Limit struct {
	Source  LimitSource
	Default float64
}

// Resolve implements §3's resolution rule: pick the server-reported value
// when Source is Channel and control info has been received; otherwise the
// stored default.
func (l Limit) Resolve(channelValue float64, hasControlInfo bool) float64 {
	if l.Source == SourceChannel && hasControlInfo {
		return channelValue
	}
	return l.Default
}

// PvLimits bundles the three resolvable quantities for a numeric/enum
// widget: display low, display high, and fractional-digit precision.
type PvLimits struct {
	Low       Limit
	High      Limit
	Precision Limit
}

// ResolvePrecision resolves the precision limit and clamps it to the
// 0-17 range the spec requires (§3 "Precision is clamped to 0-17").
func (p PvLimits) ResolvePrecision(channelPrecision float64, hasControlInfo bool) int {
	v := p.Precision.Resolve(channelPrecision, hasControlInfo)
	prec := int(v)
	if prec < 0 {
		prec = 0
	}
	if prec > 17 {
		prec = 17
	}
	return prec
}

// FormatNumber renders value with exactly precision fractional digits,
// the convention every monitor/control widget uses to display a PV's
// current value (§3 "numeric formatting").
func FormatNumber(value float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if precision > 17 {
		precision = 17
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}
