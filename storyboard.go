package webchalk

import (
	"io"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/internal/storyboard"
)

// Storyboard is a declarative timeline definition loaded from YAML.
type Storyboard = storyboard.Document

// TargetResolver maps storyboard target identifiers to live targets.
type TargetResolver func(id string) (Target, error)

// LoadStoryboard parses and validates a storyboard document from YAML bytes.
func LoadStoryboard(data []byte) (Storyboard, error) {
	return storyboard.Parse(data)
}

// LoadStoryboardReader reads a storyboard document from r.
func LoadStoryboardReader(r io.Reader) (Storyboard, error) {
	return storyboard.LoadReader(r)
}

// LoadStoryboardFile loads a storyboard document from a file path.
func LoadStoryboardFile(path string) (Storyboard, error) {
	return storyboard.LoadFile(path)
}

// BuildStoryboard binds a loaded storyboard to an effect bank and target
// resolver, producing a runnable timeline.
func BuildStoryboard(doc Storyboard, bank EffectBank, resolve TargetResolver, opts ...Option) (Timeline, error) {
	o := applyOptions(opts)
	return storyboard.Build(doc, storyboard.BuildParams{
		Bank:          bank,
		ResolveTarget: resolve,
		Strict:        o.strict,
		Observer:      o.observer,
		Clock:         o.clock,
		FrameInterval: o.frameInterval,
	})
}
