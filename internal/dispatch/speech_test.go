package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEngine holds the init callback so tests control when the engine
// becomes ready.
type fakeEngine struct {
	onReady  func(err error)
	spoken   []string
	stops    int
	speaking bool
	err      error
}

func (f *fakeEngine) Init(onReady func(err error)) { f.onReady = onReady }

func (f *fakeEngine) Speak(text string) error {
	if f.err != nil {
		return f.err
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeEngine) Stop() { f.stops++ }

func (f *fakeEngine) Speaking() bool { return f.speaking }

func TestSpeechQueuesUntilReady(t *testing.T) {
	engine := &fakeEngine{}
	s := NewSpeech(zap.NewNop().Sugar(), engine)
	require.NotNil(t, engine.onReady)

	s.Speak("first")
	s.Speak("second")
	assert.Empty(t, engine.spoken)

	engine.onReady(nil)

	assert.Equal(t, []string{"first", "second"}, engine.spoken)
}

func TestSpeechSpeaksDirectlyWhenReady(t *testing.T) {
	engine := &fakeEngine{}
	s := NewSpeech(zap.NewNop().Sugar(), engine)
	engine.onReady(nil)

	s.Speak("hello")

	assert.Equal(t, []string{"hello"}, engine.spoken)
	assert.Zero(t, engine.stops)
}

func TestSpeechInterruptsCurrentUtterance(t *testing.T) {
	engine := &fakeEngine{}
	s := NewSpeech(zap.NewNop().Sugar(), engine)
	engine.onReady(nil)
	engine.speaking = true

	s.Speak("urgent")

	assert.Equal(t, 1, engine.stops)
	assert.Equal(t, []string{"urgent"}, engine.spoken)
}

// slowEngine simulates utterances that take time, flagging any overlap
// between synthesizer runs.
type slowEngine struct {
	onReady    func(err error)
	mu         sync.Mutex
	active     int
	overlapped bool
	spoken     []string
}

func (f *slowEngine) Init(onReady func(err error)) { f.onReady = onReady }

func (f *slowEngine) Speak(text string) error {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlapped = true
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.active--
	f.mu.Unlock()
	return nil
}

func (f *slowEngine) Stop() {}

func (f *slowEngine) Speaking() bool { return false }

func TestSpeechFlushDoesNotOverlapUtterances(t *testing.T) {
	engine := &slowEngine{}
	s := NewSpeech(zap.NewNop().Sugar(), engine)

	s.Speak("first")
	s.Speak("second")
	s.Speak("third")

	engine.onReady(nil)

	assert.Equal(t, []string{"first", "second", "third"}, engine.spoken)
	assert.False(t, engine.overlapped)
}

func TestSpeechStaysQueuedOnInitFailure(t *testing.T) {
	engine := &fakeEngine{}
	s := NewSpeech(zap.NewNop().Sugar(), engine)

	s.Speak("lost")
	engine.onReady(assert.AnError)

	// The engine never became ready; nothing may reach it.
	assert.Empty(t, engine.spoken)
}
