package game

// ScheduledSound is a future-tick queued audio cue.
type ScheduledSound struct {
	TargetTick int64   `json:"target_tick"`
	Name       string  `json:"name"`
	Volume     float64 `json:"volume"`
	Pan        float64 `json:"pan"`
	Pitch      float64 `json:"pitch"`
}

// SoundStep is one link of a chained sequence: play Name, then wait
// DelayAfter ticks before the next step.
type SoundStep struct {
	Name       string
	DelayAfter int64
}

// SoundScheduler queues sounds against a monotonically increasing tick
// counter. Entries due on or before the current tick are dispatched in
// insertion order and removed; the pending list never holds a stale
// entry across ticks.
type SoundScheduler struct {
	Tick    int64            `json:"tick"`
	Pending []ScheduledSound `json:"pending"`

	// Dispatch fans one cue out to the table. Rebound on rehydrate.
	Dispatch func(ScheduledSound) `json:"-"`
}

func NewSoundScheduler() *SoundScheduler {
	return &SoundScheduler{}
}

// Schedule queues a sound delayTicks from now. Zero delay plays on the
// next Process call.
func (s *SoundScheduler) Schedule(name string, delayTicks int64, volume, pan, pitch float64) {
	s.Pending = append(s.Pending, ScheduledSound{
		TargetTick: s.Tick + delayTicks,
		Name:       name,
		Volume:     volume,
		Pan:        pan,
		Pitch:      pitch,
	})
}

// ScheduleSequence chains steps so each plays DelayAfter ticks after
// the previous, starting startDelay from now.
func (s *SoundScheduler) ScheduleSequence(steps []SoundStep, startDelay int64) {
	at := startDelay
	for _, step := range steps {
		s.Schedule(step.Name, at, 1, 0, 1)
		at += step.DelayAfter
	}
}

// Process dispatches every due entry in insertion order, removes them,
// then advances the tick counter.
func (s *SoundScheduler) Process() {
	if len(s.Pending) > 0 {
		kept := s.Pending[:0]
		for _, entry := range s.Pending {
			if entry.TargetTick <= s.Tick {
				if s.Dispatch != nil {
					s.Dispatch(entry)
				}
			} else {
				kept = append(kept, entry)
			}
		}
		s.Pending = kept
	}
	s.Tick++
}
