package capacity

// SetStatfs swaps the filesystem probe for tests.
func (g *Guard) SetStatfs(fn func(path string) (uint64, error)) {
	g.statfs = fn
}
