package session

const eventBufferSize = 16

// Subscription provides event channels for one subscriber.
type Subscription struct {
	StateChanged      <-chan StateChange
	EpisodeChanged    <-chan EpisodeChange
	PositionChanged   <-chan PositionChange
	RateChanged       <-chan RateChange
	VisibilityChanged <-chan VisibilityChange
	Error             <-chan ErrorEvent
	Done              <-chan struct{}

	// Internal write channels
	stateCh      chan StateChange
	episodeCh    chan EpisodeChange
	positionCh   chan PositionChange
	rateCh       chan RateChange
	visibilityCh chan VisibilityChange
	errorCh      chan ErrorEvent
	doneCh       chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:      make(chan StateChange, eventBufferSize),
		episodeCh:    make(chan EpisodeChange, eventBufferSize),
		positionCh:   make(chan PositionChange, eventBufferSize),
		rateCh:       make(chan RateChange, eventBufferSize),
		visibilityCh: make(chan VisibilityChange, eventBufferSize),
		errorCh:      make(chan ErrorEvent, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.EpisodeChanged = s.episodeCh
	s.PositionChanged = s.positionCh
	s.RateChanged = s.rateCh
	s.VisibilityChanged = s.visibilityCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state change event (non-blocking).
func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendEpisode sends an episode change event (non-blocking).
func (s *Subscription) sendEpisode(e EpisodeChange) {
	select {
	case s.episodeCh <- e:
	default:
	}
}

// sendPosition sends a position change event (non-blocking).
func (s *Subscription) sendPosition(e PositionChange) {
	select {
	case s.positionCh <- e:
	default:
	}
}

// sendRate sends a rate change event (non-blocking).
func (s *Subscription) sendRate(e RateChange) {
	select {
	case s.rateCh <- e:
	default:
	}
}

// sendVisibility sends a visibility change event (non-blocking).
func (s *Subscription) sendVisibility(e VisibilityChange) {
	select {
	case s.visibilityCh <- e:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
