package hotkeys

import (
	"errors"
	"fmt"
	"strings"
)

// Action binds a named command to a RegisterHotKey chord.
type Action struct {
	Name      string
	Spec      string
	OnTrigger func()
}

type parsedAction struct {
	name      string
	binding   Binding
	onTrigger func()
}

// parseActions validates a set of actions. Empty specs are skipped so that
// a blank config entry disables that action. Two actions may not share a chord.
func parseActions(actions []Action) ([]parsedAction, error) {
	parsed := make([]parsedAction, 0, len(actions))
	seen := make(map[string]string, len(actions))
	for _, action := range actions {
		if strings.TrimSpace(action.Spec) == "" {
			continue
		}
		if action.OnTrigger == nil {
			return nil, fmt.Errorf("hotkey action %q: onTrigger callback is required", action.Name)
		}
		binding, err := ParseBinding(action.Spec)
		if err != nil {
			return nil, fmt.Errorf("hotkey action %q: %w", action.Name, err)
		}
		if other, dup := seen[binding.Normalized()]; dup {
			return nil, fmt.Errorf("hotkey %s is bound to both %q and %q", binding.Normalized(), other, action.Name)
		}
		seen[binding.Normalized()] = action.Name
		parsed = append(parsed, parsedAction{name: action.Name, binding: binding, onTrigger: action.OnTrigger})
	}
	if len(parsed) == 0 {
		return nil, errors.New("no hotkey actions configured")
	}
	return parsed, nil
}

func bindingsByName(actions []parsedAction) map[string]string {
	out := make(map[string]string, len(actions))
	for _, a := range actions {
		out[a.name] = a.binding.Normalized()
	}
	return out
}
