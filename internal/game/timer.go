package game

// Round timer states.
const (
	TimerIdle     = "idle"
	TimerCounting = "counting"
	TimerPaused   = "paused"
)

// RoundTimer is the countdown games run between hands or races. Only
// State and Ticks survive a snapshot; OnReady is rebound by
// rebuild_runtime_state.
type RoundTimer struct {
	State string `json:"state"`
	Ticks int    `json:"ticks"`

	OnReady func() `json:"-"`
}

func NewRoundTimer() *RoundTimer {
	return &RoundTimer{State: TimerIdle}
}

// Start begins (or restarts) the countdown.
func (r *RoundTimer) Start(ticks int) {
	r.State = TimerCounting
	r.Ticks = ticks
}

// OnTick advances a counting timer; when it reaches zero the ready
// hook fires and the timer returns to idle.
func (r *RoundTimer) OnTick() {
	if r.State != TimerCounting {
		return
	}
	r.Ticks--
	if r.Ticks <= 0 {
		r.State = TimerIdle
		r.Ticks = 0
		if r.OnReady != nil {
			r.OnReady()
		}
	}
}

// TogglePause flips between counting and paused; it reports the new
// state so the caller can announce who paused it.
func (r *RoundTimer) TogglePause() string {
	switch r.State {
	case TimerCounting:
		r.State = TimerPaused
	case TimerPaused:
		r.State = TimerCounting
	}
	return r.State
}

// IsActive reports whether the timer is counting or paused.
func (r *RoundTimer) IsActive() bool {
	return r.State == TimerCounting || r.State == TimerPaused
}
