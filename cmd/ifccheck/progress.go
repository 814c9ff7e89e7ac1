package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/term"

	"github.com/spboyer/ifccheck/internal/runner"
	"github.com/spboyer/ifccheck/internal/spinner"
)

// progress shows a spinner while models are checked. It stays silent unless
// out is a terminal and debug logging is off.
type progress struct {
	out     io.Writer
	enabled bool

	mu sync.Mutex
	sp *spinner.Spinner
}

func newProgress(out io.Writer) *progress {
	p := &progress{out: out}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.enabled = !slog.Default().Enabled(context.Background(), slog.LevelDebug)
	}
	return p
}

func (p *progress) start(models int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sp == nil {
		p.sp = spinner.Start(p.out, fmt.Sprintf("Checking %d model(s)", models))
	}
}

func (p *progress) handle(e runner.ProgressEvent) {
	logProgress(e)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sp != nil && e.EventType == runner.EventModelStart {
		p.sp.Update(fmt.Sprintf("Checking %s (%d/%d)", filepath.Base(e.Model), e.ModelNum, e.TotalModels))
	}
}

func (p *progress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sp != nil {
		p.sp.Stop()
		p.sp = nil
	}
}
