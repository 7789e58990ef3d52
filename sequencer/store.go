package sequencer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go-jamtyper/debug"
	"go-jamtyper/pattern"
	"go-jamtyper/song"
)

// DefaultGrace is how long replaced instruments keep running so notes
// already triggered on them can finish
const DefaultGrace = 5 * time.Second

// ErrClosed is returned by Install after Close
var ErrClosed = errors.New("store closed")

// Session is one installed song with the instruments built for it. It is
// never modified after install; a new song gets a new Session.
type Session struct {
	ID        uuid.UUID
	Song      *song.Song
	Tracks    []*Track // sorted by track id
	Installed time.Time

	byID map[song.TrackID]*Track
}

// Track returns the slot for id, nil if the song has no such track
func (s *Session) Track(id song.TrackID) *Track {
	return s.byID[id]
}

// Query returns the events of track in [start, stop). Tracks that are not
// part of the session have no events.
func (s *Session) Query(track song.TrackID, start, stop float64) []pattern.Event {
	if s.byID[track] == nil {
		return nil
	}
	return pattern.Query(s.Song, track, start, stop)
}

type retirement struct {
	session *Session
	stop    func() bool
	once    sync.Once
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithGrace sets the delay before replaced instruments are disposed
func WithGrace(d time.Duration) StoreOption {
	return func(s *Store) { s.grace = d }
}

// WithTimers replaces the wall clock (tests use a manual one)
func WithTimers(t Timers) StoreOption {
	return func(s *Store) { s.timers = t }
}

// Store holds the installed song. Readers load the current Session with a
// single atomic read and keep using it for as long as they need, so an
// install never changes the song under a running tick.
type Store struct {
	current atomic.Pointer[Session]
	factory Factory
	timers  Timers
	grace   time.Duration

	mu      sync.Mutex
	pending map[*retirement]struct{}
	closed  bool
}

// NewStore creates an empty store building instruments with factory
func NewStore(factory Factory, opts ...StoreOption) *Store {
	s := &Store{
		factory: factory,
		timers:  SystemTimers{},
		grace:   DefaultGrace,
		pending: make(map[*retirement]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the installed session, nil before the first install
func (s *Store) Current() *Session {
	return s.current.Load()
}

// Install parses definition and installs it. On error nothing changes and
// the previous song keeps playing.
func (s *Store) Install(definition []byte) (*Session, error) {
	sng, err := song.Parse(definition)
	if err != nil {
		return nil, fmt.Errorf("install: %w", err)
	}
	return s.InstallSong(sng)
}

// InstallSong builds one instrument per track of sng, swaps the new session
// in and schedules disposal of the previous one after the grace delay.
func (s *Store) InstallSong(sng *song.Song) (*Session, error) {
	ids := sng.Tracks()
	sess := &Session{
		ID:        uuid.New(),
		Song:      sng,
		Tracks:    make([]*Track, 0, len(ids)),
		Installed: s.timers.Now(),
		byID:      make(map[song.TrackID]*Track, len(ids)),
	}
	for i, id := range ids {
		inst, err := s.factory(id, i, sng)
		if err != nil {
			disposeTracks(sess.Tracks)
			return nil, fmt.Errorf("install track %s: %w", id, err)
		}
		tr := newTrack(id, i, inst)
		sess.Tracks = append(sess.Tracks, tr)
		sess.byID[id] = tr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		disposeTracks(sess.Tracks)
		return nil, ErrClosed
	}
	old := s.current.Swap(sess)
	if old != nil {
		s.retire(old)
	}
	debug.Log("store", "installed %s: %d tracks, %d changes, bpm=%.1f", sess.ID, len(sess.Tracks), len(sng.Changes), sng.BPM)
	return sess, nil
}

// retire must be called with mu held
func (s *Store) retire(old *Session) {
	r := &retirement{session: old}
	s.pending[r] = struct{}{}
	r.stop = s.timers.AfterFunc(s.grace, func() { s.finish(r) })
}

func (s *Store) finish(r *retirement) {
	s.mu.Lock()
	delete(s.pending, r)
	s.mu.Unlock()

	r.once.Do(func() {
		disposeTracks(r.session.Tracks)
		debug.Log("store", "disposed %s", r.session.ID)
	})
}

// Pending returns the number of replaced sessions still inside their grace delay
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close disposes every instrument now, including replaced ones still
// waiting for their grace delay. Later installs fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	pending := make([]*retirement, 0, len(s.pending))
	for r := range s.pending {
		pending = append(pending, r)
	}
	cur := s.current.Swap(nil)
	s.mu.Unlock()

	for _, r := range pending {
		if r.stop != nil {
			r.stop()
		}
		s.finish(r)
	}
	if cur != nil {
		disposeTracks(cur.Tracks)
	}
}

func disposeTracks(tracks []*Track) {
	for _, t := range tracks {
		t.Dispose()
	}
}
