package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"vthell-api/pkg/models"
)

// RcloneLister lists a remote with `rclone lsjson -R`
type RcloneLister struct {
	Binary string
	Remote string
}

// NewRcloneLister creates a lister for remote (for example "gdrive:VTuberHell")
func NewRcloneLister(binary, remote string) *RcloneLister {
	if strings.TrimSpace(binary) == "" {
		binary = "rclone"
	}
	return &RcloneLister{Binary: binary, Remote: remote}
}

// CategoryPath joins the remote and a category folder
func (l *RcloneLister) CategoryPath(category string) string {
	if l.Remote == "" || strings.HasSuffix(l.Remote, "/") || strings.HasSuffix(l.Remote, ":") {
		return l.Remote + category
	}
	return l.Remote + "/" + category
}

// List runs rclone for one category and decodes its JSON output
func (l *RcloneLister) List(ctx context.Context, category string) ([]models.Entry, error) {
	if strings.TrimSpace(l.Remote) == "" {
		return nil, fmt.Errorf("rclone remote is required")
	}

	cmd := exec.CommandContext(ctx, l.Binary, "lsjson", "-R", l.CategoryPath(category))
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rclone failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return decodeLsjson(stdout.Bytes())
}

func decodeLsjson(data []byte) ([]models.Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("rclone returned empty output")
	}

	var entries []models.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode rclone output: %w", err)
	}
	return entries, nil
}
