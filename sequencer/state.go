package sequencer

import (
	"go-jamtyper/pattern"
	"go-jamtyper/song"
)

// Status is a snapshot of the engine for display
type Status struct {
	Playing    bool
	Clock      float64 // bars
	Lookahead  float64
	BPM        float64
	Volume     float64
	SessionID  string
	Pending    int // replaced sessions not yet disposed
	Dispatched uint64
	Failed     uint64
	Tracks     []TrackStatus
}

// TrackStatus holds the display state of a single track
type TrackStatus struct {
	ID     song.TrackID
	Muted  bool
	Recent []pattern.Event // latest dispatched events, oldest first
}

// Status collects the scheduler side of the snapshot. Playing is filled
// in by the engine, which owns the transport.
func (s *Scheduler) Status() Status {
	sess := s.store.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Clock:      s.clock,
		Lookahead:  s.lookahead,
		BPM:        song.DefaultBPM,
		Volume:     song.DefaultVolume,
		Pending:    s.store.Pending(),
		Dispatched: s.dispatched,
		Failed:     s.failed,
	}
	if sess == nil {
		return st
	}
	st.BPM = sess.Song.BPM
	st.Volume = sess.Song.Volume
	st.SessionID = sess.ID.String()
	for _, tr := range sess.Tracks {
		recent := s.recent[tr.ID]
		st.Tracks = append(st.Tracks, TrackStatus{
			ID:     tr.ID,
			Muted:  s.muted[tr.ID],
			Recent: append([]pattern.Event(nil), recent...),
		})
	}
	return st
}
