package thicket

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a frame script.
type scriptStep struct {
	Action string `json:"action"`
	Label  string `json:"label,omitempty"`
	Node   string `json:"node,omitempty"`
	Frames int    `json:"frames,omitempty"`
}

type frameScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner plays a JSON frame script against a scene, one step per
// Update, for automated visual checks. Supported actions:
//
//	{"action": "screenshot", "label": "idle"}
//	{"action": "wait", "frames": 30}
//	{"action": "hide", "node": "hero"}
//	{"action": "show", "node": "hero"}
//	{"action": "stop-effect", "node": "hero"}
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON frame script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script frameScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse frame script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse frame script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "screenshot", "wait":
		case "hide", "show", "stop-effect":
			if st.Node == "" {
				return nil, fmt.Errorf("parse frame script: step %d (%s) needs a node", i, st.Action)
			}
		default:
			return nil, fmt.Errorf("parse frame script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// SetScriptRunner attaches a runner to the scene. It steps at the start of
// every Update.
func (s *Scene) SetScriptRunner(r *ScriptRunner) {
	s.script = r
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "hide", "show":
		if n := s.root.Find(st.Node); n != nil {
			n.Visible = st.Action == "show"
		} else {
			debugWarn("script: no node named %q", st.Node)
		}
	case "stop-effect":
		if n := s.root.Find(st.Node); n != nil {
			n.StopGridEffect()
		} else {
			debugWarn("script: no node named %q", st.Node)
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
