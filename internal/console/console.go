// Package console runs an interview over plain line-oriented input and output.
// It is used when stdin or stdout is not a terminal, or when --console is set.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/berth-dev/intake/internal/interview"
)

// ExitCommand ends the session early. Progress is already saved per turn.
const ExitCommand = "exit"

const rule = "=================================================="

// Runner drives one session through a reader and writer.
type Runner struct {
	ctl     *interview.Controller
	in      *bufio.Scanner
	out     io.Writer
	verbose bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithVerbose prints the evaluator's notes after each answer.
func WithVerbose(v bool) Option {
	return func(r *Runner) { r.verbose = v }
}

// New creates a Runner that reads answers from in and writes prompts to out.
func New(ctl *interview.Controller, in io.Reader, out io.Writer, opts ...Option) *Runner {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	r := &Runner{ctl: ctl, in: sc, out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run asks questions until the interview completes, the user types exit, or
// input ends. It returns nil in all three cases.
func (r *Runner) Run(ctx context.Context, s *interview.Session) error {
	for !s.Complete() {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.banner(s)
		fmt.Fprintf(r.out, "\nInterviewer: %s\n", s.LastPrompt())
		fmt.Fprint(r.out, "\nInterviewee: ")

		if !r.in.Scan() {
			if err := r.in.Err(); err != nil {
				return fmt.Errorf("reading answer: %w", err)
			}
			fmt.Fprintln(r.out)
			return nil
		}
		answer := strings.TrimSpace(r.in.Text())
		if strings.EqualFold(answer, ExitCommand) {
			fmt.Fprintln(r.out, "\nSession saved. Run intake again to continue.")
			return nil
		}

		reply, err := r.ctl.Respond(ctx, s, answer)
		if err != nil {
			return err
		}
		if reply.SaveErr != nil {
			fmt.Fprintf(r.out, "\nWarning: could not save session: %v\n", reply.SaveErr)
		}
		if r.verbose {
			r.notes(reply)
		}
		if reply.Complete() {
			fmt.Fprintf(r.out, "\nInterviewer: %s\n", reply.Message)
		}
	}
	return nil
}

func (r *Runner) banner(s *interview.Session) {
	title := string(s.Current)
	if t, err := r.ctl.Catalog().Get(s.Current); err == nil {
		title = t.Title()
	}
	fmt.Fprintf(r.out, "\n%s\nTopic: %s\n%s\n", rule, title, rule)
}

func (r *Runner) notes(reply *interview.Reply) {
	fmt.Fprintln(r.out, "\n[Interviewer Notes]")
	if reply.Skipped || reply.Verdict == nil {
		fmt.Fprintln(r.out, "Topic skipped: the candidate declined to answer.")
		return
	}
	v := reply.Verdict
	fmt.Fprintf(r.out, "Satisfaction Score: %d/10\n", v.SatisfactionScore)
	fmt.Fprintf(r.out, "Summary: %s\n", v.Summary)
	fmt.Fprintf(r.out, "Analysis: %s\n", v.Analysis)
	if v.SatisfactionScore < interview.AdvanceThreshold {
		fmt.Fprintf(r.out, "Missing Information: %s\n", v.MissingInfo)
	}
}
