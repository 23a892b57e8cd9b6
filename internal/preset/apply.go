package preset

import (
	"context"
	"fmt"
)

// Applier performs preset actions against a scene.
type Applier interface {
	ApplyTexture(ctx context.Context, part, texture string, mapping map[string]any, persist bool) error
	ApplyTint(ctx context.Context, part, color string) error
}

// ApplyError reports the action that stopped a preset. Actions before Index
// stay applied.
type ApplyError struct {
	Preset  string
	Index   int
	Part    string
	Applied int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("preset %s: action %d (%s) failed after %d applied: %v",
		e.Preset, e.Index, e.Part, e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Apply runs the actions of p in order and returns how many were applied.
// Actions without a part, or with neither texture nor color, are skipped.
// The first failing action aborts the rest; nothing is rolled back.
func Apply(ctx context.Context, p Preset, a Applier) (int, error) {
	applied := 0

	for i, action := range p.Actions {
		if action.Part == "" {
			continue
		}

		var err error

		if err = ctx.Err(); err == nil {
			switch {
			case action.Texture != "":
				err = a.ApplyTexture(ctx, action.Part, action.Texture, action.Mapping, action.Persist)
			case action.Tint() != "":
				err = a.ApplyTint(ctx, action.Part, action.Tint())
			default:
				continue
			}
		}

		if err != nil {
			name := p.ID
			if name == "" {
				name = p.Label
			}

			return applied, &ApplyError{Preset: name, Index: i, Part: action.Part, Applied: applied, Err: err}
		}

		applied++
	}

	return applied, nil
}
