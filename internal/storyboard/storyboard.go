// Package storyboard loads declarative timeline definitions from YAML and
// builds runnable timelines out of them.
package storyboard

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Document is the top-level storyboard definition.
type Document struct {
	// Name labels the resulting timeline.
	Name string `yaml:"name"`

	// Debug enables verbose playback logging on the timeline.
	Debug bool `yaml:"debug,omitempty"`

	Sequences []SequenceDoc `yaml:"sequences"`
}

// SequenceDoc defines one sequence of the storyboard.
type SequenceDoc struct {
	Description  string  `yaml:"description,omitempty"`
	Tag          string  `yaml:"tag,omitempty"`
	Autoplay     bool    `yaml:"autoplay,omitempty"`
	PlaybackRate float64 `yaml:"playbackRate,omitempty"`

	Clips []ClipDoc `yaml:"clips"`
}

// ClipDoc defines one clip: which effect, on which target, in which category.
type ClipDoc struct {
	// Category is one of the recognized clip categories, e.g. "Entrance".
	Category string `yaml:"category"`

	// Effect names a generator registered in the effect bank.
	Effect string `yaml:"effect"`

	// Target identifies the element to animate; resolution is up to the
	// builder's target resolver.
	Target string `yaml:"target"`

	Config ConfigDoc `yaml:"config,omitempty"`

	// Options are forwarded verbatim to the generator's ComposeEffect.
	Options []any `yaml:"options,omitempty"`
}

// ConfigDoc is the call-site configuration layer in YAML form. Durations are
// Go duration strings ("500ms", "1.5s"); absent fields stay unset so lower
// layers show through.
type ConfigDoc struct {
	Duration *string  `yaml:"duration,omitempty"`
	Delay    *string  `yaml:"delay,omitempty"`
	EndDelay *string  `yaml:"endDelay,omitempty"`
	Easing   *string  `yaml:"easing,omitempty"`
	Rate     *float64 `yaml:"playbackRate,omitempty"`
	ExitType *string  `yaml:"exitType,omitempty"`

	StartsWithPrevious *bool `yaml:"startsWithPrevious,omitempty"`
	StartsNextClipToo  *bool `yaml:"startsNextClipToo,omitempty"`
}

// Parse decodes a storyboard document from YAML bytes and validates it.
func Parse(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("storyboard: document is empty")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("storyboard: decode document: %w", err)
	}
	if err := doc.validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// LoadReader reads a storyboard document from an io.Reader.
func LoadReader(r io.Reader) (Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("storyboard: read document: %w", err)
	}
	return Parse(content)
}

// LoadFile loads a storyboard document from a file path.
func LoadFile(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("storyboard: read %s: %w", path, err)
	}
	doc, parseErr := Parse(content)
	if parseErr != nil {
		return Document{}, fmt.Errorf("storyboard: %s: %w", path, parseErr)
	}
	return doc, nil
}

func (d Document) validate() error {
	if d.Name == "" {
		return fmt.Errorf("storyboard: name is required")
	}
	if len(d.Sequences) == 0 {
		return fmt.Errorf("storyboard %q: at least one sequence is required", d.Name)
	}
	for si, seq := range d.Sequences {
		if len(seq.Clips) == 0 {
			return fmt.Errorf("storyboard %q: sequences[%d]: at least one clip is required", d.Name, si)
		}
		if seq.PlaybackRate < 0 {
			return fmt.Errorf("storyboard %q: sequences[%d].playbackRate: must not be negative", d.Name, si)
		}
		for ci, clip := range seq.Clips {
			at := fmt.Sprintf("sequences[%d].clips[%d]", si, ci)
			if clip.Category == "" {
				return fmt.Errorf("storyboard %q: %s.category is required", d.Name, at)
			}
			if !validCategory(clip.Category) {
				return fmt.Errorf("storyboard %q: %s.category: unknown category %q", d.Name, at, clip.Category)
			}
			if clip.Effect == "" {
				return fmt.Errorf("storyboard %q: %s.effect is required", d.Name, at)
			}
			if clip.Target == "" {
				return fmt.Errorf("storyboard %q: %s.target is required", d.Name, at)
			}
			if _, err := clip.Config.effectConfig(); err != nil {
				return fmt.Errorf("storyboard %q: %s.config: %w", d.Name, at, err)
			}
		}
	}
	return nil
}

func validCategory(name string) bool {
	for _, cat := range api.Categories() {
		if string(cat) == name {
			return true
		}
	}
	return false
}

// effectConfig converts the YAML layer into an api.EffectConfig, parsing
// duration strings and naming the offending field on failure.
func (c ConfigDoc) effectConfig() (api.EffectConfig, error) {
	var out api.EffectConfig
	for _, f := range []struct {
		name string
		src  *string
		dst  **time.Duration
	}{
		{"duration", c.Duration, &out.Duration},
		{"delay", c.Delay, &out.Delay},
		{"endDelay", c.EndDelay, &out.EndDelay},
	} {
		if f.src == nil {
			continue
		}
		d, err := time.ParseDuration(*f.src)
		if err != nil {
			return api.EffectConfig{}, fmt.Errorf("%s: %q is not a duration", f.name, *f.src)
		}
		*f.dst = api.Dur(d)
	}
	out.Easing = c.Easing
	out.PlaybackRate = c.Rate
	out.ExitType = c.ExitType
	out.StartsWithPrevious = c.StartsWithPrevious
	out.StartsNextClipToo = c.StartsNextClipToo
	return out, nil
}
