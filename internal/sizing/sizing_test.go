package sizing

import (
	"reflect"
	"sync"
	"testing"
)

type recorder struct {
	mu   sync.Mutex
	reqs []int
}

func (r *recorder) SetPanelHeight(h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, h)
}

func TestLoop_BelowMinimumUsesMinimum(t *testing.T) {
	r := &recorder{}
	l := New(r, Options{MinListHeight: 5, ChromeHeight: 3, CollapsedHeight: 2})
	l.Observe(Box{Bottom: 2})
	if want := []int{8}; !reflect.DeepEqual(r.reqs, want) {
		t.Fatalf("expected %v; got %v", want, r.reqs)
	}
}

func TestLoop_AboveMinimumUsesContent(t *testing.T) {
	r := &recorder{}
	l := New(r, Options{MinListHeight: 5, ChromeHeight: 3, CollapsedHeight: 2})
	l.Observe(Box{Bottom: 12})
	l.Observe(Box{Top: 1, Bottom: 12})
	if want := []int{15, 16}; !reflect.DeepEqual(r.reqs, want) {
		t.Fatalf("expected %v; got %v", want, r.reqs)
	}
}

func TestLoop_SkipsRepeatedObservation(t *testing.T) {
	r := &recorder{}
	l := New(r, Options{MinListHeight: 1, ChromeHeight: 1, CollapsedHeight: 1})
	l.Observe(Box{Bottom: 4})
	l.Observe(Box{Bottom: 4})
	if len(r.reqs) != 1 {
		t.Fatalf("expected one request; got %v", r.reqs)
	}
}

func TestLoop_CloseResetsExactlyOnce(t *testing.T) {
	r := &recorder{}
	l := New(r, Options{MinListHeight: 5, ChromeHeight: 3, CollapsedHeight: 2})
	l.Observe(Box{Bottom: 9})
	l.Close()
	l.Close()
	l.Observe(Box{Bottom: 20})
	if want := []int{12, 2}; !reflect.DeepEqual(r.reqs, want) {
		t.Fatalf("expected %v; got %v", want, r.reqs)
	}
}

func TestLoop_Defaults(t *testing.T) {
	r := &recorder{}
	l := New(r, Options{})
	if got := l.Target(Box{}); got != DefaultMinListHeight+DefaultChromeHeight {
		t.Fatalf("unexpected default target %d", got)
	}
	l.Close()
	if r.reqs[0] != DefaultCollapsedHeight {
		t.Fatalf("unexpected collapsed height %v", r.reqs)
	}
}
