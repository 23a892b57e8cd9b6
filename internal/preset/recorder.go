package preset

import (
	"context"
	"sync"
)

// TextureState is the texture assignment of a single part.
type TextureState struct {
	Texture string         `json:"texture"`
	Mapping map[string]any `json:"mapping,omitempty"`
	Persist bool           `json:"persist,omitempty"`
}

// Recorder is an Applier that records the resulting scene state instead of
// rendering it. The state has the shape of a saved configuration.
type Recorder struct {
	mu       sync.Mutex
	textures map[string]TextureState
	tints    map[string]string
}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		textures: map[string]TextureState{},
		tints:    map[string]string{},
	}
}

// ApplyTexture implements Applier.
func (r *Recorder) ApplyTexture(_ context.Context, part, texture string, mapping map[string]any, persist bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.textures[part] = TextureState{Texture: texture, Mapping: mapping, Persist: persist}

	return nil
}

// ApplyTint implements Applier.
func (r *Recorder) ApplyTint(_ context.Context, part, color string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tints[part] = color

	return nil
}

// State returns the recorded scene state.
func (r *Recorder) State() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	textures := make(map[string]TextureState, len(r.textures))
	for k, v := range r.textures {
		textures[k] = v
	}

	tints := make(map[string]string, len(r.tints))
	for k, v := range r.tints {
		tints[k] = v
	}

	return map[string]any{
		"textureSettings": textures,
		"tintSettings":    tints,
	}
}
