package batch

import (
	"fmt"
	"io"

	v1 "github.com/boat2moon/infinitetalk-comfyui-workflow/internal/contracts/comfy/v1"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
)

// Reporter writes the human-readable progress lines. Write errors are
// ignored; logs carry the same information.
type Reporter struct {
	w io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = io.Discard
	}
	return &Reporter{w: w}
}

func (r *Reporter) Begin(item models.Item, total, frames int) {
	fmt.Fprintf(r.w, "\n[%d/%d] %s + %s (%s, %d frames)\n",
		item.Index, total, item.Subject.Name, item.Audio, item.Subject.Resolution(), frames)
}

func (r *Reporter) Submitted(promptID string) {
	fmt.Fprintf(r.w, "  Submitted: %s\n", promptID)
}

func (r *Reporter) Output(filename string) {
	fmt.Fprintf(r.w, "  Output: %s\n", filename)
}

func (r *Reporter) Done() {
	fmt.Fprintln(r.w, "  Done!")
}

func (r *Reporter) ServerError(status v1.Status) {
	fmt.Fprintf(r.w, "  ERROR: %s\n", status)
}

func (r *Reporter) Timeout() {
	fmt.Fprintln(r.w, "  TIMEOUT!")
}

func (r *Reporter) Failed() {
	fmt.Fprintln(r.w, "  FAILED!")
}

func (r *Reporter) Finished(s Summary) {
	fmt.Fprintf(r.w, "\nFinished: %d/%d succeeded\n", s.Succeeded, s.Total)
}

func (r *Reporter) Stopped(s Summary, err error) {
	fmt.Fprintf(r.w, "\nStopped after %d/%d items (%d succeeded): %v\n", s.Processed, s.Total, s.Succeeded, err)
}
