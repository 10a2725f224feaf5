package engine

import (
	"fmt"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Hiding methods recorded by entrance/exit hooks so rewinds restore the
// exact mechanism found or applied during the paired forward play.
const (
	hideByClass      = "css-class"
	hideByVisibility = "visibility-hidden"
	hideByDisplay    = "display-none"
)

// hookSet is the per-category lifecycle hook table. Nil entries are skipped.
// Start hooks run synchronously before any frame is applied; a non-nil error
// aborts the playback with state unchanged.
type hookSet struct {
	startForward   func(c *Clip) error
	finishForward  func(c *Clip) error
	startBackward  func(c *Clip) error
	finishBackward func(c *Clip) error
}

func (h hookSet) start(dir api.Direction) func(c *Clip) error {
	if dir == api.DirectionBackward {
		return h.startBackward
	}
	return h.startForward
}

func (h hookSet) finish(dir api.Direction) func(c *Clip) error {
	if dir == api.DirectionBackward {
		return h.finishBackward
	}
	return h.finishForward
}

// categoryHooks maps each category to its hook set. Categories absent from
// specialized behavior (Emphasis, Motion, Transition) run with empty hooks.
var categoryHooks = map[api.Category]hookSet{
	api.CategoryEntrance: {
		startForward:   entranceStartForward,
		finishBackward: entranceFinishBackward,
	},
	api.CategoryExit: {
		startForward:  exitStartForward,
		finishForward: exitFinishForward,
		startBackward: exitStartBackward,
	},
	api.CategoryEmphasis:   {},
	api.CategoryMotion:     {},
	api.CategoryTransition: {},
	api.CategoryScroller: {
		startForward:   scrollerStartForward,
		finishBackward: scrollerFinishBackward,
	},
	api.CategoryConnectorSetter: {
		startForward: connectorSetterStartForward,
	},
	api.CategoryConnectorEntrance: {
		startForward:   connectorEntranceStartForward,
		finishForward:  connectorStopUpdates,
		startBackward:  connectorStartUpdates,
		finishBackward: connectorEntranceFinishBackward,
	},
	api.CategoryConnectorExit: {
		startForward:   connectorExitStartForward,
		finishForward:  connectorExitFinishForward,
		startBackward:  connectorExitStartBackward,
		finishBackward: connectorStopUpdates,
	},
}

func hooksFor(cat api.Category) (hookSet, bool) {
	h, ok := categoryHooks[cat]
	return h, ok
}

// unhide removes the hidden marker from the target and records which method
// had hidden it. It fails when no recognized marker is present.
func unhide(c *Clip) error {
	t := c.target
	switch {
	case t.HasClass(api.HiddenClassName):
		c.hideMethod = hideByClass
		t.RemoveClass(api.HiddenClassName)
	case t.GetStyle("visibility") == "hidden":
		c.hideMethod = hideByVisibility
		t.SetStyle("visibility", "")
	case t.GetStyle("display") == "none":
		c.hideMethod = hideByDisplay
		t.SetStyle("display", "")
	default:
		return &api.PreconditionError{
			Category: c.category,
			Target:   t.ID(),
			Detail: fmt.Sprintf(
				"no recognized hidden marker: missing class %q, visibility is %q, display is %q",
				api.HiddenClassName, styleOrUnset(t, "visibility"), styleOrUnset(t, "display"),
			),
		}
	}
	return nil
}

// rehide reapplies the exact hiding method recorded by the paired unhide.
func rehide(c *Clip) error {
	switch c.hideMethod {
	case hideByClass:
		c.target.AddClass(api.HiddenClassName)
	case hideByVisibility:
		c.target.SetStyle("visibility", "hidden")
	case hideByDisplay:
		c.target.SetStyle("display", "none")
	default:
		return &api.PreconditionError{
			Category: c.category,
			Target:   c.target.ID(),
			Detail:   "no hiding method was recorded by the paired forward play",
		}
	}
	c.hideMethod = ""
	return nil
}

// requireVisible fails when the target already carries a hidden marker,
// naming the marker found.
func requireVisible(c *Clip) error {
	t := c.target
	switch {
	case t.HasClass(api.HiddenClassName):
		return alreadyHidden(c, fmt.Sprintf("class %q", api.HiddenClassName))
	case t.GetStyle("visibility") == "hidden":
		return alreadyHidden(c, `style "visibility: hidden"`)
	case t.GetStyle("display") == "none":
		return alreadyHidden(c, `style "display: none"`)
	}
	return nil
}

func alreadyHidden(c *Clip, marker string) error {
	return &api.PreconditionError{
		Category: c.category,
		Target:   c.target.ID(),
		Detail:   "target is already hidden via " + marker,
	}
}

// applyExit hides the target per the clip's exitType and records the method
// so the backward play can undo it exactly.
func applyExit(c *Clip) error {
	switch c.cfg.ExitType {
	case api.ExitDisplayNone:
		c.hideMethod = hideByClass
		c.target.AddClass(api.HiddenClassName)
	case api.ExitVisibilityHidden:
		c.hideMethod = hideByVisibility
		c.target.SetStyle("visibility", "hidden")
	default:
		return &api.RangeError{Field: "exitType", Value: c.cfg.ExitType, Accepted: api.ExitTypes()}
	}
	return nil
}

// undoExit removes the hiding applied by the paired forward play.
func undoExit(c *Clip) error {
	switch c.hideMethod {
	case hideByClass:
		c.target.RemoveClass(api.HiddenClassName)
	case hideByVisibility:
		c.target.SetStyle("visibility", "")
	default:
		return &api.PreconditionError{
			Category: c.category,
			Target:   c.target.ID(),
			Detail:   "no hiding method was recorded by the paired forward play",
		}
	}
	c.hideMethod = ""
	return nil
}

func entranceStartForward(c *Clip) error   { return unhide(c) }
func entranceFinishBackward(c *Clip) error { return rehide(c) }

func exitStartForward(c *Clip) error  { return requireVisible(c) }
func exitFinishForward(c *Clip) error { return applyExit(c) }
func exitStartBackward(c *Clip) error { return undoExit(c) }

func scrollerStartForward(c *Clip) error {
	c.anchorStackFor().push(c.target.BoundingBox())
	return nil
}

func scrollerFinishBackward(c *Clip) error {
	c.anchorStackFor().pop()
	return nil
}

func connector(c *Clip) api.Connector {
	// Validated at construction.
	return c.target.(api.Connector)
}

func connectorSetterStartForward(c *Clip) error {
	connector(c).UpdateEndpoints()
	return nil
}

func connectorStartUpdates(c *Clip) error {
	connector(c).ContinuouslyUpdateEndpoints()
	return nil
}

func connectorStopUpdates(c *Clip) error {
	connector(c).CancelContinuousUpdates()
	return nil
}

func connectorEntranceStartForward(c *Clip) error {
	if err := unhide(c); err != nil {
		return err
	}
	conn := connector(c)
	conn.UpdateEndpoints()
	conn.ContinuouslyUpdateEndpoints()
	return nil
}

func connectorEntranceFinishBackward(c *Clip) error {
	connector(c).CancelContinuousUpdates()
	return rehide(c)
}

func connectorExitStartForward(c *Clip) error {
	if err := requireVisible(c); err != nil {
		return err
	}
	connector(c).ContinuouslyUpdateEndpoints()
	return nil
}

func connectorExitFinishForward(c *Clip) error {
	connector(c).CancelContinuousUpdates()
	return applyExit(c)
}

func connectorExitStartBackward(c *Clip) error {
	if err := undoExit(c); err != nil {
		return err
	}
	connector(c).ContinuouslyUpdateEndpoints()
	return nil
}

func styleOrUnset(t api.Target, prop string) string {
	if v := t.GetStyle(prop); v != "" {
		return v
	}
	return "unset"
}
