package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlatform_Constants(t *testing.T) {
	require.Equal(t, Platform("youtube"), PlatformYouTube)
	require.Equal(t, Platform("bilibili"), PlatformBilibili)
}

func TestEpochSeconds_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    EpochSeconds
		wantErr bool
	}{
		{"integer", `1682935140`, 1682935140, false},
		{"fractional legacy value", `1682935140.0`, 1682935140, false},
		{"rounds half up", `1682935140.6`, 1682935141, false},
		{"negative", `-60`, -60, false},
		{"string", `"soon"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got EpochSeconds
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestJob_LegacyFileDecodes(t *testing.T) {
	raw := `{
		"id": "abc123",
		"filename": "[2023.05.01.abc123] Hello",
		"startTime": 1682935140.0,
		"streamer": "UC1",
		"streamUrl": "https://www.youtube.com/watch?v=abc123",
		"type": "youtube",
		"isDownloading": false,
		"isDownloaded": false,
		"isPaused": false,
		"firstRun": true
	}`

	var job Job
	require.NoError(t, json.Unmarshal([]byte(raw), &job))
	require.Equal(t, EpochSeconds(1682935140), job.StartTime)
	require.False(t, job.MemberOnly)
	require.Empty(t, job.DiscordCallback)

	data, err := job.MarshalIndent()
	require.NoError(t, err)
	require.Contains(t, string(data), `"startTime": 1682935140,`)
	require.NotContains(t, string(data), "discordCallback")
}

func TestNewJob(t *testing.T) {
	resolved := &ResolvedStream{
		ID:         "abc123",
		Filename:   "[2023.05.01.abc123] Hello",
		StartTime:  1682935140,
		Streamer:   "UC1",
		StreamURL:  "https://www.youtube.com/watch?v=abc123",
		Type:       PlatformYouTube,
		MemberOnly: true,
	}

	job := NewJob(resolved)
	require.Equal(t, "abc123", job.ID)
	require.Equal(t, EpochSeconds(1682935140), job.StartTime)
	require.True(t, job.MemberOnly)
	require.True(t, job.FirstRun)
	require.False(t, job.IsDownloading)
	require.False(t, job.IsDownloaded)
	require.False(t, job.IsPaused)
	require.Equal(t, StatePending, job.State())
}

func TestJob_State(t *testing.T) {
	tests := []struct {
		name   string
		job    Job
		want   JobState
		active bool
	}{
		{"pending", Job{}, StatePending, false},
		{"recording", Job{IsDownloading: true}, StateRecording, true},
		{"paused", Job{IsDownloading: true, IsPaused: true}, StatePaused, true},
		{"recorded", Job{IsDownloaded: true}, StateRecorded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.job.State())
			require.Equal(t, tt.active, tt.job.IsActive())
		})
	}
}

func TestJob_Title(t *testing.T) {
	require.Equal(t, "Hello／World", (&Job{Filename: "[2023.05.01.abc123] Hello／World"}).Title())
	require.Equal(t, "no brackets", (&Job{Filename: "no brackets"}).Title())
}
