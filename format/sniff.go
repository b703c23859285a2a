package format

// Sniff evaluates the registered checkers against sample in registration
// order. The first checker that accepts wins.
func Sniff(reg *Registry, sample []byte) (string, bool) {
	if len(sample) == 0 {
		return "", false
	}
	for _, d := range reg.Checkers() {
		if safeCheck(d.Checker, sample) {
			return d.ID, true
		}
	}
	return "", false
}

// safeCheck treats a panicking checker as a rejection.
func safeCheck(c Checker, sample []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return c.Check(sample)
}

