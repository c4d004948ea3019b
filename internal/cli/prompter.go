package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

// Choice is the user's answer for one candidate pair.
type Choice string

// Review choices.
const (
	ChoiceConfirm Choice = "c"
	ChoiceDismiss Choice = "d"
	ChoiceSkip    Choice = "s"
	ChoiceQuit    Choice = "q"
)

// ErrInputClosed is returned when the input stream ends mid-prompt.
var ErrInputClosed = errors.New("input terminated")

// Prompter asks the user about transfer candidates.
type Prompter struct {
	writer      io.Writer
	reader      *NonBlockingReader
	progressBar *progressbar.ProgressBar
}

// NewPrompter creates a prompter reading from reader and writing to writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ReviewPair shows pair and asks whether it is a transfer.
func (p *Prompter) ReviewPair(ctx context.Context, pair model.TransferCandidatePair, index, total int) (Choice, error) {
	title := fmt.Sprintf("Candidate %d of %d", index, total)
	if _, err := fmt.Fprintln(p.writer, RenderBox(title, FormatPair(pair))); err != nil {
		return "", fmt.Errorf("failed to write candidate: %w", err)
	}

	options := []string{
		"  [C] Confirm: this is a transfer between my accounts",
		"  [D] Dismiss: not a transfer (it will show up again next scan)",
		"  [S] Skip for now",
		"  [Q] Stop reviewing",
	}
	if _, err := fmt.Fprintln(p.writer, strings.Join(options, "\n")); err != nil {
		return "", fmt.Errorf("failed to write options: %w", err)
	}

	choice, err := p.promptChoice(ctx, "Choice", []Choice{ChoiceConfirm, ChoiceDismiss, ChoiceSkip, ChoiceQuit})
	if err != nil {
		return "", err
	}
	return choice, nil
}

// Confirm asks a yes/no question. Anything but y/yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []Choice) (Choice, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return "", ErrInputClosed
		}
		if err != nil {
			return "", err
		}

		choice := Choice(strings.ToLower(input))
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// StartBatch shows a progress bar for applying total confirmations.
func (p *Prompter) StartBatch(total int) {
	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Linking transfers...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Advance moves the batch progress bar forward by n.
func (p *Prompter) Advance(n int) {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// FinishBatch completes and removes the progress bar.
func (p *Prompter) FinishBatch() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	p.progressBar = nil
}

// ShowOutcome prints what a resolve call did.
func (p *Prompter) ShowOutcome(outcome service.ResolveOutcome) error {
	var lines []string
	if n := len(outcome.Successful); n > 0 {
		lines = append(lines, FormatSuccess(fmt.Sprintf("Linked %d transfer(s)", n)))
	}
	for _, f := range outcome.Failed {
		lines = append(lines, FormatError(fmt.Sprintf("%s: %s", f.Key, f.Reason)))
	}

	switch {
	case outcome.Committed:
		lines = append(lines, FormatSuccess("Window fully reviewed. Checked range is now "+outcome.CheckedRange.String()))
		if outcome.RecommendedNext != nil {
			lines = append(lines, FormatInfo("Next window: "+outcome.RecommendedNext.String()))
		} else {
			lines = append(lines, FormatInfo("You are all caught up."))
		}
	case outcome.Remaining > 0:
		lines = append(lines, FormatWarning(fmt.Sprintf("%d candidate(s) still need a decision; the window stays open", outcome.Remaining)))
	}

	if len(lines) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(p.writer, strings.Join(lines, "\n"))
	return err
}
