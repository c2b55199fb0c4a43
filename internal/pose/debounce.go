package pose

// debounce suppresses single-frame classification noise: a raw phase becomes
// the confirmed phase only after enough consecutive frames agree on it.
// Two counters are kept, one per opposing phase; a frame classified as one
// phase immediately zeroes the counter of the other, while frames in the
// hysteresis band (raw == current confirmed phase) keep feeding the
// confirmed side.
type debounce struct {
	phaseA   string
	phaseB   string
	required int
	framesA  int
	framesB  int
}

func newDebounce(phaseA, phaseB string, required int) debounce {
	return debounce{
		phaseA:   phaseA,
		phaseB:   phaseB,
		required: required,
	}
}

func (d *debounce) observe(raw string) {
	switch raw {
	case d.phaseA:
		d.framesA++
		d.framesB = 0
	case d.phaseB:
		d.framesB++
		d.framesA = 0
	}
}

// confirm returns the phase that collected enough agreeing frames, or the
// current confirmed phase when neither side did.
func (d *debounce) confirm(current string) string {
	if d.framesA >= d.required {
		return d.phaseA
	}
	if d.framesB >= d.required {
		return d.phaseB
	}
	return current
}

func (d *debounce) reset() {
	d.framesA = 0
	d.framesB = 0
}

// cooldown blocks repeated counts for a fixed number of frames after a
// counted event, the software equivalent of a refractory period: one
// physical repetition must not be counted twice because the classifier
// jittered at the transition boundary.
type cooldown struct {
	window    int
	remaining int
}

func newCooldown(window int) cooldown {
	return cooldown{window: window}
}

// tick is called once per frame, regardless of phase.
func (c *cooldown) tick() {
	if c.remaining > 0 {
		c.remaining--
	}
}

func (c *cooldown) ready() bool {
	return c.remaining == 0
}

// arm starts the refractory window; called only when a rep is counted.
func (c *cooldown) arm() {
	c.remaining = c.window
}

func (c *cooldown) reset() {
	c.remaining = 0
}
