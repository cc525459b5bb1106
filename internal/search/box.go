package search

import "strings"

// Box is the state of one search bar: typed text, active source, the open
// results panel and the keyboard cursor. It is not safe for concurrent use.
type Box struct {
	finder  *Finder
	source  string
	query   string
	results []Result
	open    bool
	active  int
}

func NewBox(f *Finder) *Box {
	return &Box{finder: f, source: f.DefaultSource(), active: -1}
}

// Type replaces the typed text. Blank text closes the panel and clears results.
func (b *Box) Type(q string) error {
	b.query = q
	if strings.TrimSpace(q) == "" {
		b.open, b.results, b.active = false, nil, -1
		return nil
	}
	b.open = true
	return b.refresh()
}

// SwitchSource changes the dataset and recomputes results for the typed text.
func (b *Box) SwitchSource(key string) error {
	if !b.finder.HasSource(key) {
		return ErrUnknownSource
	}
	b.source = key
	return b.refresh()
}

func (b *Box) refresh() error {
	res, err := b.finder.Search(b.source, b.query)
	if err != nil {
		return err
	}
	b.results = res
	b.active = -1
	if len(res) > 0 {
		b.active = 0
	}
	return nil
}

// Open reopens the panel when there is text to show results for.
func (b *Box) Open() {
	b.open = strings.TrimSpace(b.query) != ""
}

func (b *Box) Close() { b.open = false }

// Move shifts the cursor by delta, clamped to the results, opening the panel.
func (b *Box) Move(delta int) {
	b.Open()
	if len(b.results) == 0 {
		b.active = -1
		return
	}
	b.active = min(max(b.active+delta, 0), len(b.results)-1)
}

// Choose returns the selected result and resets the box.
func (b *Box) Choose() (Result, bool) {
	r, ok := b.Selected()
	if ok {
		b.open, b.query, b.results, b.active = false, "", nil, -1
	}
	return r, ok
}

func (b *Box) Selected() (Result, bool) {
	if b.active < 0 || b.active >= len(b.results) {
		return Result{}, false
	}
	return b.results[b.active], true
}

func (b *Box) Source() string { return b.source }
func (b *Box) Query() string { return b.query }
func (b *Box) Results() []Result { return b.results }
func (b *Box) IsOpen() bool { return b.open }
func (b *Box) Active() int { return b.active }
