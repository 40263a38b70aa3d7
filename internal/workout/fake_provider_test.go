package workout

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
)

// fakeProvider is a scriptable sensor.Provider. Events are delivered only
// when a test calls emit on the session.
type fakeProvider struct {
	mu          sync.Mutex
	unavailable bool
	authErr     error
	createErr   error
	beginErr    error
	endErr      error
	finishErr   error
	createDelay time.Duration

	authCalls int
	lastShare []sensor.ObjectType
	lastRead  []sensor.ObjectType
	sessions  []*fakeSession
}

func (p *fakeProvider) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.unavailable
}

func (p *fakeProvider) RequestAuthorization(ctx context.Context, share, read []sensor.ObjectType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authCalls++
	p.lastShare = share
	p.lastRead = read
	return p.authErr
}

func (p *fakeProvider) CreateSession(cfg sensor.SessionConfig, sink sensor.EventSink) (sensor.Session, error) {
	if p.createDelay > 0 {
		time.Sleep(p.createDelay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	s := &fakeSession{cfg: cfg, sink: sink}
	s.builder = &fakeBuilder{
		provider: p,
		stats:    make(map[sensor.ObjectType]sensor.Statistic),
	}
	p.sessions = append(p.sessions, s)
	return s, nil
}

func (p *fakeProvider) sessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *fakeProvider) lastSession() *fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

type fakeSession struct {
	mu       sync.Mutex
	cfg      sensor.SessionConfig
	sink     sensor.EventSink
	builder  *fakeBuilder
	started  bool
	endCalls int
}

func (s *fakeSession) StartActivity(at time.Time) {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

func (s *fakeSession) End() {
	s.mu.Lock()
	s.endCalls++
	s.mu.Unlock()
}

func (s *fakeSession) Builder() sensor.Builder { return s.builder }

func (s *fakeSession) ended() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endCalls
}

func (s *fakeSession) emit(ev sensor.Event) { s.sink(ev) }

// emitSample records q in the builder's statistic for t and reports a batch for t.
func (s *fakeSession) emitSample(t sensor.ObjectType, q sensor.Quantity) {
	s.builder.add(t, q)
	s.emit(sensor.SampleBatch{Source: s.builder, Types: []sensor.ObjectType{t}})
}

type fakeBuilder struct {
	provider *fakeProvider

	mu        sync.Mutex
	stats     map[sensor.ObjectType]sensor.Statistic
	began     bool
	endCalls  int
	finishes  int
}

func (b *fakeBuilder) BeginCollection(ctx context.Context, at time.Time) error {
	b.provider.mu.Lock()
	err := b.provider.beginErr
	b.provider.mu.Unlock()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.began = true
	b.mu.Unlock()
	return nil
}

func (b *fakeBuilder) EndCollection(ctx context.Context, at time.Time) error {
	b.mu.Lock()
	b.endCalls++
	b.mu.Unlock()
	b.provider.mu.Lock()
	defer b.provider.mu.Unlock()
	return b.provider.endErr
}

func (b *fakeBuilder) FinishWorkout(ctx context.Context) error {
	b.mu.Lock()
	b.finishes++
	b.mu.Unlock()
	b.provider.mu.Lock()
	defer b.provider.mu.Unlock()
	return b.provider.finishErr
}

func (b *fakeBuilder) Statistic(t sensor.ObjectType) (sensor.Statistic, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stat, ok := b.stats[t]
	return stat.Clone(), ok
}

func (b *fakeBuilder) add(t sensor.ObjectType, q sensor.Quantity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stat, ok := b.stats[t]
	if !ok {
		stat = sensor.NewStatistic(t, time.Time{})
	}
	stat.Add(q, time.Now())
	b.stats[t] = stat
}

// errorLog collects errors passed to Options.OnError.
type errorLog struct {
	mu   sync.Mutex
	errs []error
}

func (l *errorLog) record(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *errorLog) count(target error) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, err := range l.errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

func (l *errorLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

// recordingPublisher keeps every update it receives.
type recordingPublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recordingPublisher) Publish(u Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recordingPublisher) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

func newTestController(p *fakeProvider, pub Publisher) (*Controller, *errorLog) {
	errs := &errorLog{}
	c := NewController(p, Options{
		Publisher: pub,
		Logger:    log.New(io.Discard, "", 0),
		OnError:   errs.record,
	})
	return c, errs
}
