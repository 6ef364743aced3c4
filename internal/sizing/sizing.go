// Package sizing turns measurements of the rendered link list into panel
// height requests for the host.
package sizing

import "sync"

// Default heights, in terminal rows.
const (
	DefaultMinListHeight   = 3
	DefaultChromeHeight    = 4
	DefaultCollapsedHeight = 6
)

// Resizer is the host's panel resize request.
type Resizer interface {
	SetPanelHeight(height int)
}

type ResizerFunc func(height int)

func (f ResizerFunc) SetPanelHeight(height int) { f(height) }

// Box is the observed content box of the list, relative to the panel body.
type Box struct {
	Top    int
	Bottom int
}

// Loop requests max(Bottom+Top, MinListHeight)+ChromeHeight on every observed
// change and restores CollapsedHeight exactly once on Close.
type Loop struct {
	host            Resizer
	minListHeight   int
	chromeHeight    int
	collapsedHeight int

	mu     sync.Mutex
	last   Box
	seen   bool
	closed bool
	once   sync.Once
}

type Options struct {
	MinListHeight   int
	ChromeHeight    int
	CollapsedHeight int
}

func (o Options) withDefaults() Options {
	if o.MinListHeight <= 0 {
		o.MinListHeight = DefaultMinListHeight
	}
	if o.ChromeHeight <= 0 {
		o.ChromeHeight = DefaultChromeHeight
	}
	if o.CollapsedHeight <= 0 {
		o.CollapsedHeight = DefaultCollapsedHeight
	}
	return o
}

func New(host Resizer, opts Options) *Loop {
	opts = opts.withDefaults()
	return &Loop{
		host:            host,
		minListHeight:   opts.MinListHeight,
		chromeHeight:    opts.ChromeHeight,
		collapsedHeight: opts.CollapsedHeight,
	}
}

// Target is the panel height requested for box.
func (l *Loop) Target(box Box) int {
	content := box.Bottom + box.Top
	if content < l.minListHeight {
		content = l.minListHeight
	}
	return content + l.chromeHeight
}

// Observe handles one size notification. Repeats of the last observed box
// and observations after Close are ignored.
func (l *Loop) Observe(box Box) {
	l.mu.Lock()
	if l.closed || (l.seen && box == l.last) {
		l.mu.Unlock()
		return
	}
	l.last = box
	l.seen = true
	h := l.Target(box)
	l.mu.Unlock()

	l.host.SetPanelHeight(h)
}

// Close issues the collapsed-height reset. Safe to call more than once.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		l.host.SetPanelHeight(l.collapsedHeight)
	})
}
