package control

// DisplayMode selects how a related-display entry opens its target (§4.6).
type DisplayMode int

const (
	ModeAdd DisplayMode = iota
	ModeReplace
	ModeNew
)

// RelatedDisplayEntry is one row of a related-display button's menu.
type RelatedDisplayEntry struct {
	Label       string
	DisplayPath string
	Mode        DisplayMode
}

// RelatedDisplay is not a PV writer (§4.6): activation resolves which
// entry to open and in what mode; the display engine performs the load.
type RelatedDisplay struct {
	Entries []RelatedDisplayEntry
	OnOpen  func(entry RelatedDisplayEntry)
}

func NewRelatedDisplay(entries []RelatedDisplayEntry, onOpen func(RelatedDisplayEntry)) *RelatedDisplay {
	return &RelatedDisplay{Entries: entries, OnOpen: onOpen}
}

// Activate resolves buttonIndex (ignoring modifiers, which only affect
// mode in the legacy tool's single-entry shorthand form) to an entry and
// invokes OnOpen.
func (r *RelatedDisplay) Activate(buttonIndex int) {
	if buttonIndex < 0 || buttonIndex >= len(r.Entries) {
		return
	}
	if r.OnOpen != nil {
		r.OnOpen(r.Entries[buttonIndex])
	}
}
