package engine

// Clock is the run's logical cycle clock. Cycles are the only notion of
// time; wall-clock time is never read.
type Clock struct {
	cycle       int
	epochLength int
}

// NewClock creates a clock at cycle 0.
func NewClock(epochLength int) *Clock {
	return &Clock{epochLength: max(1, epochLength)}
}

// Tick advances one cycle and returns the number of cycles elapsed.
func (c *Clock) Tick() int {
	c.cycle++
	return c.cycle
}

// Cycle returns the number of cycles elapsed.
func (c *Clock) Cycle() int {
	return c.cycle
}

// Epoch returns the index of the epoch containing the next cycle.
func (c *Clock) Epoch() int {
	return c.cycle / c.epochLength
}

// EpochStart returns the first cycle of epoch.
func (c *Clock) EpochStart(epoch int) int {
	return epoch * c.epochLength
}
