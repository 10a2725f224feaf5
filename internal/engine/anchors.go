package engine

import (
	"sync"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// anchorStack records scroll anchors so nested scroll rewinds restore
// positions in reverse order. Scroller clips push on forward start and pop
// on backward finish.
//
// Each timeline owns one stack, scoping "current rewind chain" to the
// timeline. Clips playing outside any timeline share a package-level stack.
type anchorStack struct {
	mu    sync.Mutex
	items []api.Rect
}

var defaultAnchors anchorStack

func (s *anchorStack) push(r api.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
}

func (s *anchorStack) pop() (api.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return api.Rect{}, false
	}
	r := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return r, true
}

func (s *anchorStack) depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
