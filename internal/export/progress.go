package export

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Progress receives per-collection counts while a run proceeds.
type Progress interface {
	Collection(name string, documents int)
}

// ConsoleProgress prints operator-facing progress lines. Single-collection
// plans say "document(s) found".
type ConsoleProgress struct {
	w      io.Writer
	suffix string
}

func NewConsoleProgress(w io.Writer, plan Plan) *ConsoleProgress {
	p := &ConsoleProgress{w: w}
	if len(plan.Collections) == 1 {
		p.suffix = " found"
	}
	return p
}

func (p *ConsoleProgress) Collection(name string, documents int) {
	fmt.Fprintf(p.w, "  %s %s: %d document(s)%s\n", color.GreenString("✔"), name, documents, p.suffix)
}

type noProgress struct{}

func (noProgress) Collection(string, int) {}
