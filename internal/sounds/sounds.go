// ABOUTME: Audio cues for chat: send, receive and typing, played as terminal bells
// ABOUTME: Volume and enable state are adjustable at runtime and safe for concurrent use

package sounds

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultVolume is the initial volume.
const DefaultVolume = 0.3

// Cue identifies a sound.
type Cue int

const (
	Send Cue = iota
	Receive
	Typing
)

func (c Cue) String() string {
	switch c {
	case Send:
		return "send"
	case Receive:
		return "receive"
	case Typing:
		return "typing"
	default:
		return "unknown"
	}
}

// bells is how many BEL characters each cue rings at full volume.
var bells = map[Cue]int{
	Send:    1,
	Receive: 2,
	Typing:  1,
}

// Player rings cues on a writer, normally the terminal.
type Player struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	volume  float64
	logger  *slog.Logger
}

// NewPlayer creates an enabled Player at DefaultVolume writing to out.
// A nil out writes to stderr.
func NewPlayer(out io.Writer) *Player {
	if out == nil {
		out = os.Stderr
	}
	return &Player{
		out:     out,
		enabled: true,
		volume:  DefaultVolume,
		logger:  slog.Default().With("component", "sounds"),
	}
}

// SetEnabled turns all cues on or off.
func (p *Player) SetEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = on
}

// SetVolume sets the volume, clamped to [0, 1].
func (p *Player) SetVolume(v float64) {
	switch {
	case v < 0 || v != v: // NaN
		v = 0
	case v > 1:
		v = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Enabled reports whether cues are played.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Play rings cue. Nothing happens when disabled or at zero volume. Write
// errors are logged and otherwise ignored.
func (p *Player) Play(cue Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.volume <= 0 {
		return
	}
	n, ok := bells[cue]
	if !ok {
		return
	}
	// Loud cues ring their full count; quiet ones a single bell
	if p.volume < 0.5 {
		n = 1
	}
	if _, err := io.WriteString(p.out, strings.Repeat("\a", n)); err != nil {
		p.logger.Debug("playing cue", "cue", cue, "error", err)
	}
}
