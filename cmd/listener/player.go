package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// clockPlayer stands in for a media element: it keeps a position that
// advances with wall time while playing and reports loads right away.
type clockPlayer struct {
	mu       sync.Mutex
	track    int
	base     float64
	started  time.Time
	playing  bool
	looping  bool
	onLoaded func(track int)
}

func newClockPlayer() *clockPlayer {
	return &clockPlayer{track: -1}
}

func (p *clockPlayer) Load(track int) {
	p.mu.Lock()
	p.track = track
	p.base = 0
	p.playing = false
	fn := p.onLoaded
	p.mu.Unlock()

	log.Info().Str("module", "listener.player").Int("track", track).Msg("load")
	if fn != nil {
		go fn(track)
	}
}

func (p *clockPlayer) Seek(pos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = pos
	p.started = time.Now()
	log.Debug().Str("module", "listener.player").Float64("pos", pos).Msg("seek")
}

func (p *clockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.playing = true
	p.started = time.Now()
	log.Info().Str("module", "listener.player").Int("track", p.track).Float64("pos", p.base).Msg("play")
}

func (p *clockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.base = p.position()
	p.playing = false
	log.Info().Str("module", "listener.player").Int("track", p.track).Float64("pos", p.base).Msg("pause")
}

func (p *clockPlayer) SetLoop(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.looping = on
}

func (p *clockPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position()
}

func (p *clockPlayer) position() float64 {
	if !p.playing {
		return p.base
	}
	return p.base + time.Since(p.started).Seconds()
}
