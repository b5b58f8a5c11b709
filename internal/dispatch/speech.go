package dispatch

import (
	"sync"

	"go.uber.org/zap"
)

// SpeechEngine is the synthesizer itself. Init completes asynchronously;
// Speak must not be called before onReady reports success. Speak blocks
// until the utterance finishes or Stop interrupts it.
type SpeechEngine interface {
	Init(onReady func(err error))
	Speak(text string) error
	Stop()
	Speaking() bool
}

// Speech queues utterances that arrive before the engine finishes
// initializing and flushes them, in order, once it is ready. One instance
// serves the whole process. The mutex owns the ready flag and the pending
// queue; alarm firings and the init callback run on different goroutines.
type Speech struct {
	logger *zap.SugaredLogger
	engine SpeechEngine

	mu      sync.Mutex
	ready   bool
	pending []string
}

func NewSpeech(logger *zap.SugaredLogger, engine SpeechEngine) *Speech {
	s := &Speech{
		logger: logger,
		engine: engine,
	}
	engine.Init(s.onReady)

	return s
}

// Speak interrupts any current utterance and speaks text. Before the
// engine is ready the text is queued instead.
func (s *Speech) Speak(text string) {
	s.mu.Lock()
	if !s.ready {
		s.pending = append(s.pending, text)
		s.mu.Unlock()
		s.logger.Debugw("speech engine not ready, queued utterance", "text", text)
		return
	}
	s.mu.Unlock()

	if s.engine.Speaking() {
		s.engine.Stop()
	}

	if err := s.engine.Speak(text); err != nil {
		s.logger.Errorw("failed to speak reminder", "err", err)
	}
}

func (s *Speech) onReady(err error) {
	if err != nil {
		s.logger.Errorw("speech engine initialization failed", "err", err)
		return
	}

	s.mu.Lock()
	s.ready = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.logger.Infow("speech engine ready", "queued", len(pending))

	// Queued utterances append after one another instead of flushing each
	// other; each Speak runs to completion before the next starts.
	for _, text := range pending {
		if err := s.engine.Speak(text); err != nil {
			s.logger.Errorw("failed to speak queued reminder", "err", err)
		}
	}
}
