package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-transfers/internal/model"
)

func TestWindowFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    model.DateRange
		wantOK  bool
		wantErr bool
	}{
		{name: "no flags", wantOK: false},
		{
			name:   "whole days",
			args:   []string{"--from=2024-01-01", "--to=2024-01-31"},
			want:   model.DayRange(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)),
			wantOK: true,
		},
		{name: "only from", args: []string{"--from=2024-01-01"}, wantErr: true},
		{name: "bad date", args: []string{"--from=2024-13-01", "--to=2024-12-31"}, wantErr: true},
		{name: "reversed", args: []string{"--from=2024-02-01", "--to=2024-01-01"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			addWindowFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			got, ok, err := windowFromFlags(cmd)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecisions(t *testing.T) {
	got, err := parseDecisions([]string{"tx-1:tx-2"}, []string{" tx-3:tx-4 "})
	require.NoError(t, err)
	assert.Equal(t, []model.Decision{
		{Key: model.PairKey{OutgoingID: "tx-1", IncomingID: "tx-2"}, Action: model.ActionConfirm},
		{Key: model.PairKey{OutgoingID: "tx-3", IncomingID: "tx-4"}, Action: model.ActionDismiss},
	}, got)

	_, err = parseDecisions([]string{"tx-1"}, nil)
	assert.Error(t, err)
}
