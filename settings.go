package tinsel

import (
	"fmt"
	"os"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Settings are the user preferences kept between runs. Scene state itself is
// never persisted.
type Settings struct {
	GestureEnabled bool           `yaml:"gestureEnabled"`
	OpenPalm       OpenPalmPolicy `yaml:"openPalm"`
	Focus          FocusPolicy    `yaml:"focus"`
	AudioCues      bool           `yaml:"audioCues"`
	CueVolume      float64        `yaml:"cueVolume"`
}

// DefaultSettings mirrors DefaultConfig.
func DefaultSettings() Settings {
	cfg := DefaultConfig()
	return Settings{
		GestureEnabled: cfg.Gesture.Enabled,
		OpenPalm:       cfg.Gesture.OpenPalm,
		Focus:          cfg.Photos.Focus,
		AudioCues:      true,
		CueVolume:      0.6,
	}
}

const (
	settingsObject   = "settings"
	settingsProperty = "preferences"
)

// SettingsStore loads and saves Settings through gdata. A nil manager keeps
// settings in memory only.
type SettingsStore struct {
	data     *gdata.Manager
	settings Settings
}

// OpenSettings opens the per-user data directory for appName. When the
// directory cannot be opened the store falls back to memory-only.
func OpenSettings(appName string) *SettingsStore {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[tinsel] settings: %v (not persisted)\n", err)
		m = nil
	}
	return NewSettingsStore(m)
}

// NewSettingsStore wraps m and loads saved settings, falling back to the
// defaults on any error.
func NewSettingsStore(m *gdata.Manager) *SettingsStore {
	st := &SettingsStore{data: m, settings: DefaultSettings()}
	if err := st.Load(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[tinsel] settings: %v (using defaults)\n", err)
	}
	return st
}

// Load reads the saved settings. Missing data leaves the defaults.
func (st *SettingsStore) Load() error {
	st.settings = DefaultSettings()
	if st.data == nil || !st.data.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}
	raw, err := st.data.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	loaded := DefaultSettings()
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	loaded.CueVolume = clamp01(loaded.CueVolume)
	st.settings = loaded
	return nil
}

// Save writes the current settings. It is a no-op without a manager.
func (st *SettingsStore) Save() error {
	if st.data == nil {
		return nil
	}
	raw, err := yaml.Marshal(st.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := st.data.SaveObjectProp(settingsObject, settingsProperty, raw); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Persistent reports whether settings survive a restart.
func (st *SettingsStore) Persistent() bool {
	return st.data != nil
}

// Settings returns a copy of the current settings.
func (st *SettingsStore) Settings() Settings {
	return st.settings
}

// Update replaces the settings in memory. Call Save to persist.
func (st *SettingsStore) Update(s Settings) {
	s.CueVolume = clamp01(s.CueVolume)
	st.settings = s
}

// ApplySettings pushes preferences into a running scene. Gesture control is
// stopped when disabled; enabling it again is left to StartGestures.
func (s *Scene) ApplySettings(set Settings) {
	s.ctrl.SetPolicy(set.OpenPalm)
	s.sim.SetFocusPolicy(set.Focus)
	if !set.GestureEnabled {
		s.gestures.Stop()
	}
}
