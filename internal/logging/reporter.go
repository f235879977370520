package logging

import "github.com/litescript/ls-orrery/internal/body"

// Reporter forwards engine issues to a logger: errors at error level,
// clamps and fallbacks at warn level.
type Reporter struct {
	log *Logger
}

// NewReporter returns a body.Reporter backed by l.
func NewReporter(l *Logger) *Reporter {
	return &Reporter{log: l}
}

// Report implements body.Reporter.
func (r *Reporter) Report(i body.Issue) {
	if i.Severity == body.SeverityError {
		r.log.Error("%s", i)
		return
	}
	r.log.Warn("%s", i)
}
