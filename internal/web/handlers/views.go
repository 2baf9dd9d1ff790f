package handlers

import (
	"fmt"
	"time"

	"vthell-api/pkg/models"
)

const (
	youtubeThumbURL      = "https://i.ytimg.com/vi/%s/maxresdefault.jpg"
	bilibiliThumbURL     = "https://mizore.ihateani.me/sa/BiliThumbPlaceholder.png"
	startTimeLayout      = "Mon, 02 Jan 2006 15:04:05 UTC"
	millisecondsInSecond = 1000
)

// jobStats is the lifecycle flag summary returned by /api/stats
type jobStats struct {
	Recording bool `json:"recording"`
	Recorded  bool `json:"recorded"`
	Paused    bool `json:"paused"`
}

type viewStats struct {
	jobStats
	Member bool `json:"member"`
}

// jobView is one entry of the job listing
type jobView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Streamer    string          `json:"streamer"`
	Stats       viewStats       `json:"stats"`
	Type        models.Platform `json:"type"`
	Thumb       string          `json:"thumb"`
	StartTime   int64           `json:"startTime"`
	StartTimeJS string          `json:"startTimeJS"`
}

// statusView is the detailed view returned by /api/status
type statusView struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	URL             string          `json:"url"`
	Streamer        string          `json:"streamer"`
	StreamerID      string          `json:"streamer_id"`
	Stats           viewStats       `json:"stats"`
	Type            models.Platform `json:"type"`
	Thumb           string          `json:"thumb"`
	StartTime       int64           `json:"startTime"`
	DiscordCallback string          `json:"discordCallback,omitempty"`
}

func statsOf(job *models.Job) jobStats {
	return jobStats{
		Recording: job.IsDownloading,
		Recorded:  job.IsDownloaded,
		Paused:    job.IsPaused,
	}
}

func thumbnailOf(job *models.Job) string {
	if job.Type == models.PlatformBilibili {
		return bilibiliThumbURL
	}
	return fmt.Sprintf(youtubeThumbURL, job.ID)
}

// scheduledStart undoes the lead time applied when the job was stored
func scheduledStart(job *models.Job) int64 {
	return int64(job.StartTime) + models.LeadTime
}

func (h *Handlers) listView(job *models.Job) jobView {
	start := scheduledStart(job)
	return jobView{
		ID:          job.ID,
		Title:       job.Title(),
		URL:         job.StreamURL,
		Streamer:    h.streamers.Name(job.Type, job.Streamer),
		Stats:       viewStats{jobStats: statsOf(job), Member: job.MemberOnly},
		Type:        job.Type,
		Thumb:       thumbnailOf(job),
		StartTime:   start * millisecondsInSecond,
		StartTimeJS: time.Unix(start, 0).UTC().Format(startTimeLayout),
	}
}

func (h *Handlers) statusView(job *models.Job) statusView {
	return statusView{
		ID:              job.ID,
		Title:           job.Title(),
		URL:             job.StreamURL,
		Streamer:        h.streamers.Name(job.Type, job.Streamer),
		StreamerID:      job.Streamer,
		Stats:           viewStats{jobStats: statsOf(job), Member: job.MemberOnly},
		Type:            job.Type,
		Thumb:           thumbnailOf(job),
		StartTime:       scheduledStart(job),
		DiscordCallback: job.DiscordCallback,
	}
}
