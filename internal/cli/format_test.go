package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-transfers/internal/model"
	"github.com/Veraticus/spice-transfers/internal/service"
)

func TestWritePairTable(t *testing.T) {
	same := samplePair()
	same.OutgoingTransactionID, same.IncomingTransactionID = "tx-5", "tx-6"
	same.IncomingDate = same.OutgoingDate
	same.DateDifference = 0

	var out bytes.Buffer
	require.NoError(t, WritePairTable(&out, []model.TransferCandidatePair{samplePair(), same}))

	rendered := out.String()
	assert.Contains(t, rendered, "KEY")
	assert.Contains(t, rendered, "tx-1:tx-2")
	assert.Contains(t, rendered, "500.00")
	assert.Contains(t, rendered, "checking 2024-01-10")
	assert.Contains(t, rendered, "savings 2024-01-12")
	assert.Contains(t, rendered, "tx-5:tx-6")
	assert.Contains(t, rendered, "same day")
}

func TestWriteProgress(t *testing.T) {
	jan := model.DayRange(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	feb := model.DayRange(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		progress service.Progress
		contains []string
	}{
		{
			name:     "nothing checked",
			progress: service.Progress{RecommendedNext: &jan},
			contains: []string{"Nothing has been checked", "Next window"},
		},
		{
			name: "checked and caught up",
			progress: service.Progress{
				CheckedRange: model.CheckedDateRange{Start: jan.Start, End: jan.End},
			},
			contains: []string{"Checked:", "All caught up"},
		},
		{
			name: "open window",
			progress: service.Progress{
				CheckedRange:    model.CheckedDateRange{Start: jan.Start, End: jan.End},
				RecommendedNext: &feb,
				Window: &service.WindowSummary{
					Range:       feb,
					State:       model.StateReviewing,
					Candidates:  3,
					Outstanding: 2,
					Dismissed:   1,
				},
			},
			contains: []string{"Open window", "REVIEWING", "2 of 3 outstanding, 1 dismissed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, WriteProgress(&out, tt.progress))
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}
