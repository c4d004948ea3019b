package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

// FormatPair renders the details of one candidate.
func FormatPair(pair model.TransferCandidatePair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render("Amount:"), SuccessStyle.Render("$"+pair.Amount.StringFixed(2)))
	fmt.Fprintf(&b, "%s %s on %s  %s\n", BoldStyle.Render("From:"),
		pair.OutgoingAccountID, pair.OutgoingDate.Format(time.DateOnly), SubtleStyle.Render(pair.OutgoingTransactionID))
	fmt.Fprintf(&b, "%s %s on %s  %s\n", BoldStyle.Render("To:  "),
		pair.IncomingAccountID, pair.IncomingDate.Format(time.DateOnly), SubtleStyle.Render(pair.IncomingTransactionID))
	fmt.Fprintf(&b, "%s %s", BoldStyle.Render("Gap: "), dayGap(pair.DateDifference))
	if pair.Description != "" {
		fmt.Fprintf(&b, "\n%s", SubtleStyle.Render(pair.Description))
	}
	return b.String()
}

func dayGap(days int) string {
	switch days {
	case 0:
		return "same day"
	case 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// WritePairTable lists candidates, one per row.
func WritePairTable(out io.Writer, pairs []model.TransferCandidatePair) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, TableHeaderStyle.Render("KEY")+"\t"+
		TableHeaderStyle.Render("AMOUNT")+"\t"+
		TableHeaderStyle.Render("FROM")+"\t"+
		TableHeaderStyle.Render("TO")+"\t"+
		TableHeaderStyle.Render("GAP"))
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s %s\t%s\n",
			p.Key(),
			p.Amount.StringFixed(2),
			p.OutgoingAccountID, p.OutgoingDate.Format(time.DateOnly),
			p.IncomingAccountID, p.IncomingDate.Format(time.DateOnly),
			dayGap(p.DateDifference))
	}
	return w.Flush()
}

// WriteProgress renders the review progress as text.
func WriteProgress(out io.Writer, progress service.Progress) error {
	var lines []string
	if progress.CheckedRange.IsEmpty() {
		lines = append(lines, FormatInfo("Nothing has been checked for transfers yet"))
	} else {
		lines = append(lines, FormatSuccess("Checked: "+progress.CheckedRange.String()))
	}

	if progress.RecommendedNext != nil {
		lines = append(lines, FormatInfo("Next window: "+progress.RecommendedNext.String()))
	} else if !progress.CheckedRange.IsEmpty() {
		lines = append(lines, FormatInfo("All caught up"))
	}

	if w := progress.Window; w != nil {
		lines = append(lines, FormatWarning(fmt.Sprintf("Open window %s (%s): %d of %d outstanding, %d dismissed",
			w.Range, w.State, w.Outstanding, w.Candidates, w.Dismissed)))
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
