package physics

// Simulate runs Update on every non-Empty cell of the partition once. Columns
// are visited in a fresh random order and rows bottom-to-top. cols is scratch
// space reused between calls; the possibly reallocated slice is returned with
// the move count.
func Simulate(s *Sim, cols []int) ([]int, int) {
	w, h := s.Grid.Width(), s.Grid.Height()
	if cap(cols) < w {
		cols = make([]int, w)
	}
	cols = cols[:w]
	for i := range cols {
		cols[i] = i
	}
	s.Rand.Shuffle(w, func(i, j int) { cols[i], cols[j] = cols[j], cols[i] })

	moves := 0
	for _, x := range cols {
		for y := h - 1; y >= 0; y-- {
			if s.Grid.IsEmpty(x, y) {
				continue
			}
			if Update(s, x, y) {
				moves++
			}
		}
	}
	return cols, moves
}
