// Package models defines the data structures used throughout the application
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Platform identifies the streaming platform a job belongs to
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
)

// JobState is the lifecycle state derived from a job's flags
type JobState string

const (
	StatePending   JobState = "pending"
	StateRecording JobState = "recording"
	StatePaused    JobState = "paused"
	StateRecorded  JobState = "recorded"
)

// LeadTime is subtracted from a stream's start so the recorder starts slightly early
const LeadTime int64 = 60

// EpochSeconds is a unix timestamp in seconds.
//
// Older job files were written with fractional values (1682935140.0); those
// are rounded when decoded and always written back as integers.
type EpochSeconds int64

// UnmarshalJSON accepts both integer and fractional JSON numbers
func (e *EpochSeconds) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*e = EpochSeconds(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid epoch seconds %q: %w", raw, err)
	}
	*e = EpochSeconds(math.Round(f))
	return nil
}

// Job represents a persisted recording job. JSON names match the files the
// recorder reads, so they must not change.
type Job struct {
	ID              string       `json:"id"`
	Filename        string       `json:"filename"`
	StartTime       EpochSeconds `json:"startTime"`
	Streamer        string       `json:"streamer"`
	StreamURL       string       `json:"streamUrl"`
	Type            Platform     `json:"type"`
	MemberOnly      bool         `json:"memberOnly"`
	IsDownloading   bool         `json:"isDownloading"`
	IsDownloaded    bool         `json:"isDownloaded"`
	IsPaused        bool         `json:"isPaused"`
	FirstRun        bool         `json:"firstRun"`
	DiscordCallback string       `json:"discordCallback,omitempty"`
}

// ResolvedStream holds the metadata a resolver produces for a new job
type ResolvedStream struct {
	ID         string   `json:"id" validate:"required"`
	Filename   string   `json:"filename" validate:"required"`
	StartTime  int64    `json:"startTime"`
	Streamer   string   `json:"streamer" validate:"required"`
	StreamURL  string   `json:"streamUrl" validate:"required,url"`
	Type       Platform `json:"type" validate:"required,oneof=youtube bilibili"`
	MemberOnly bool     `json:"memberOnly"`
}

// NewJob creates a pending job from resolved stream metadata
func NewJob(resolved *ResolvedStream) *Job {
	job := &Job{FirstRun: true}
	job.ApplyResolved(resolved)
	return job
}

// ApplyResolved replaces every resolver-owned field, leaving lifecycle flags
// and the callback untouched
func (j *Job) ApplyResolved(resolved *ResolvedStream) {
	j.ID = resolved.ID
	j.Filename = resolved.Filename
	j.StartTime = EpochSeconds(resolved.StartTime)
	j.Streamer = resolved.Streamer
	j.StreamURL = resolved.StreamURL
	j.Type = resolved.Type
	j.MemberOnly = resolved.MemberOnly
}

// State derives the lifecycle state from the job flags
func (j *Job) State() JobState {
	switch {
	case j.IsDownloaded:
		return StateRecorded
	case j.IsDownloading && j.IsPaused:
		return StatePaused
	case j.IsDownloading:
		return StateRecording
	default:
		return StatePending
	}
}

// IsActive reports whether recording has started or finished
func (j *Job) IsActive() bool {
	return j.IsDownloading || j.IsDownloaded
}

// Title returns the stream title embedded in the filename
func (j *Job) Title() string {
	idx := strings.Index(j.Filename, "] ")
	if idx < 0 {
		return j.Filename
	}
	return j.Filename[idx+2:]
}

// MarshalIndent encodes the job the way job files are laid out on disk
func (j *Job) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(j, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job %s: %w", j.ID, err)
	}
	return append(data, '\n'), nil
}
