package speech

import (
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// Engine speaks through an external synthesizer binary (espeak-ng by
// default). Init resolves the binary and reports readiness through the
// callback, mirroring platform speech engines that initialize
// asynchronously.
type Engine struct {
	logger   *zap.SugaredLogger
	command  string
	language string

	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewEngine(logger *zap.SugaredLogger, command, language string) *Engine {
	return &Engine{
		logger:   logger,
		command:  command,
		language: language,
	}
}

func (e *Engine) Init(onReady func(err error)) {
	go func() {
		path, err := exec.LookPath(e.command)
		if err != nil {
			onReady(fmt.Errorf("speech synthesizer %q not available: %w", e.command, err))
			return
		}

		e.logger.Debugw("speech synthesizer resolved", "path", path, "language", e.language)
		onReady(nil)
	}()
}

// Speak runs the utterance to completion, so consecutive calls never
// overlap their synthesizer processes. An utterance cut short by Stop is
// not an error.
func (e *Engine) Speak(text string) error {
	e.mu.Lock()
	cmd := exec.Command(e.command, "-v", e.language, text)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start synthesizer: %w", err)
	}
	e.cmd = cmd
	e.mu.Unlock()

	err := cmd.Wait()

	e.mu.Lock()
	interrupted := e.cmd != cmd
	if !interrupted {
		e.cmd = nil
	}
	e.mu.Unlock()

	if err != nil && !interrupted {
		return fmt.Errorf("synthesizer: %w", err)
	}

	return nil
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	e.cmd = nil
}

func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil
}
