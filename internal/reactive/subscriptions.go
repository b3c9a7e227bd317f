package reactive

// Subscriptions collects release handles owned by one component so they can
// be released together on teardown.
type Subscriptions struct {
	releases []Release
}

// Add stores r and returns it.
func (s *Subscriptions) Add(r Release) Release {
	if r != nil {
		s.releases = append(s.releases, r)
	}
	return r
}

// Len returns the number of held handles.
func (s *Subscriptions) Len() int {
	return len(s.releases)
}

// ReleaseAll runs every handle in reverse order of acquisition and empties
// the list.
func (s *Subscriptions) ReleaseAll() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}
