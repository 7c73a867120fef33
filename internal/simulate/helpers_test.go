package simulate

// cycleSource replays fixed sequences of choices and integers, wrapping
// around when either is exhausted. Range arguments are ignored.
type cycleSource struct {
	choices []string
	ints    []int
	ci, ii  int
}

func (c *cycleSource) IntRange(lo, hi int) int {
	v := c.ints[c.ii%len(c.ints)]
	c.ii++
	return v
}

func (c *cycleSource) Choice(options []string) string {
	v := c.choices[c.ci%len(c.choices)]
	c.ci++
	return v
}

func fixedIDs(id string) func() (string, error) {
	return func() (string, error) { return id, nil }
}
