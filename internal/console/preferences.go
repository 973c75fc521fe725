// ABOUTME: Locally stored settings toggles: notifications, appearance, privacy, sounds
// ABOUTME: Persisted as JSON under the preferences key and editable by dotted name

package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/2389/sia-console/internal/sounds"
	"github.com/2389/sia-console/internal/store"
)

// Appearance choices
var (
	Themes    = []string{"dark", "darker", "terminal"}
	Densities = []string{"compact", "default", "spacious"}
)

// Font size bounds
const (
	MinFontSize = 10
	MaxFontSize = 18
)

// NotificationPrefs selects which events notify the operator.
type NotificationPrefs struct {
	AgentCompleted bool `json:"agent_completed"`
	AgentError     bool `json:"agent_error"`
	WeeklyReport   bool `json:"weekly_report"`
	LeadAlert      bool `json:"lead_alert"`
	DocProcessed   bool `json:"doc_processed"`
	SystemUpdates  bool `json:"system_updates"`
	EmailDigest    bool `json:"email_digest"`
	SlackPush      bool `json:"slack_push"`
	SMSCritical    bool `json:"sms_critical"`
}

// AppearancePrefs controls how the console looks.
type AppearancePrefs struct {
	Theme      string `json:"theme"`
	Density    string `json:"density"`
	FontSize   int    `json:"font_size"`
	Animations bool   `json:"animations"`
	Scanlines  bool   `json:"scanlines"`
	Grid       bool   `json:"grid"`
}

// PrivacyPrefs are account privacy toggles.
type PrivacyPrefs struct {
	TwoFactor bool `json:"two_factor"`
	Public    bool `json:"public"`
	Logging   bool `json:"logging"`
	Sharing   bool `json:"sharing"`
}

// SoundPrefs drive the chat cue player.
type SoundPrefs struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

// Preferences is the full set of local toggles.
type Preferences struct {
	Notifications NotificationPrefs `json:"notifications"`
	Appearance    AppearancePrefs   `json:"appearance"`
	Privacy       PrivacyPrefs      `json:"privacy"`
	Sounds        SoundPrefs        `json:"sounds"`
}

// DefaultPreferences returns the values used before anything is saved.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: NotificationPrefs{
			AgentCompleted: true,
			AgentError:     true,
			WeeklyReport:   true,
			DocProcessed:   true,
			EmailDigest:    true,
		},
		Appearance: AppearancePrefs{
			Theme:      "darker",
			Density:    "default",
			FontSize:   13,
			Animations: true,
		},
		Privacy: PrivacyPrefs{
			Public:  true,
			Logging: true,
		},
		Sounds: SoundPrefs{
			Enabled: true,
			Volume:  sounds.DefaultVolume,
		},
	}
}

// LoadPreferences reads saved preferences, falling back to the defaults for
// anything missing. Unreadable JSON yields the defaults.
func LoadPreferences(ctx context.Context, st store.Store) (Preferences, error) {
	p := DefaultPreferences()
	raw, err := st.Get(ctx, store.KeyPreferences)
	if errors.Is(err, store.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return DefaultPreferences(), nil
	}
	return p, nil
}

// Save writes p to st.
func (p Preferences) Save(ctx context.Context, st store.Store) error {
	if err := p.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := st.Set(ctx, store.KeyPreferences, string(b)); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// Validate checks the appearance choices and font size.
func (p Preferences) Validate() error {
	if !contains(Themes, p.Appearance.Theme) {
		return fmt.Errorf("theme must be one of %s", strings.Join(Themes, ", "))
	}
	if !contains(Densities, p.Appearance.Density) {
		return fmt.Errorf("density must be one of %s", strings.Join(Densities, ", "))
	}
	if p.Appearance.FontSize < MinFontSize || p.Appearance.FontSize > MaxFontSize {
		return fmt.Errorf("font size must be between %d and %d", MinFontSize, MaxFontSize)
	}
	if p.Sounds.Volume < 0 || p.Sounds.Volume > 1 {
		return errors.New("volume must be between 0 and 1")
	}
	return nil
}

// Apply configures player from the sound preferences.
func (p Preferences) Apply(player *sounds.Player) {
	if player == nil {
		return
	}
	player.SetEnabled(p.Sounds.Enabled)
	player.SetVolume(p.Sounds.Volume)
}

// Set changes one preference by dotted name, e.g. "appearance.theme".
// p is left unchanged when the new value is invalid.
func (p *Preferences) Set(name, value string) error {
	next := *p
	field, ok := next.fields()[name]
	if !ok {
		return fmt.Errorf("unknown preference %q", name)
	}

	value = strings.TrimSpace(value)
	switch ptr := field.(type) {
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false", name)
		}
		*ptr = b
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected a number", name)
		}
		*ptr = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number", name)
		}
		*ptr = f
	case *string:
		*ptr = strings.ToLower(value)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Names lists every preference name accepted by Set, sorted.
func (p *Preferences) Names() []string {
	fields := p.fields()
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Value renders one preference for display.
func (p *Preferences) Value(name string) (string, bool) {
	field, ok := p.fields()[name]
	if !ok {
		return "", false
	}
	switch ptr := field.(type) {
	case *bool:
		return strconv.FormatBool(*ptr), true
	case *int:
		return strconv.Itoa(*ptr), true
	case *float64:
		return strconv.FormatFloat(*ptr, 'f', -1, 64), true
	case *string:
		return *ptr, true
	}
	return "", false
}

func (p *Preferences) fields() map[string]any {
	n, a, pr, s := &p.Notifications, &p.Appearance, &p.Privacy, &p.Sounds
	return map[string]any{
		"notifications.agent_completed": &n.AgentCompleted,
		"notifications.agent_error":     &n.AgentError,
		"notifications.weekly_report":   &n.WeeklyReport,
		"notifications.lead_alert":      &n.LeadAlert,
		"notifications.doc_processed":   &n.DocProcessed,
		"notifications.system_updates":  &n.SystemUpdates,
		"notifications.email_digest":    &n.EmailDigest,
		"notifications.slack_push":      &n.SlackPush,
		"notifications.sms_critical":    &n.SMSCritical,
		"appearance.theme":              &a.Theme,
		"appearance.density":            &a.Density,
		"appearance.font_size":          &a.FontSize,
		"appearance.animations":         &a.Animations,
		"appearance.scanlines":          &a.Scanlines,
		"appearance.grid":               &a.Grid,
		"privacy.two_factor":            &pr.TwoFactor,
		"privacy.public":                &pr.Public,
		"privacy.logging":               &pr.Logging,
		"privacy.sharing":               &pr.Sharing,
		"sounds.enabled":                &s.Enabled,
		"sounds.volume":                 &s.Volume,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
