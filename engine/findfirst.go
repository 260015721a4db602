package engine

// FindFirst scans the root profile, ignoring repeated words, and returns
// the singleton with the smallest input-file offset — the first word in
// the original text that occurs exactly once. It returns nil when every
// word repeats. The scan writes no log; rerunning it is cheap.
func FindFirst(env *Env, root uint64) ([]byte, error) {
	in, err := env.OpenSingletonInput(root)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var best []byte
	var bestOff uint64
	found := false
	for !in.Empty() {
		it, err := in.Pop()
		if err != nil {
			return nil, err
		}
		if !found || it.Occur < bestOff {
			found = true
			bestOff = it.Occur
			best = append(best[:0], it.Word...)
		}
	}
	if !found {
		return nil, nil
	}
	env.log.Debug().Bytes("word", best).Uint64("offset", bestOff).Msg("first singleton")
	return best, nil
}
