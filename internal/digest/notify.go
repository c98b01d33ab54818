package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appLog "raidsched/internal/log"
	"raidsched/internal/model"
	"raidsched/internal/timezone"
)

// LogNotifier writes digests to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, d Digest) error {
	loc, err := timezone.LoadZone(d.Schedule.TimezoneID)
	if err != nil {
		loc = time.UTC
	}
	for _, line := range Lines(d.Schedule, loc) {
		appLog.Info("digest", "community", d.CommunityID, "entry", line)
	}
	return nil
}

// Lines renders each event as one human readable line in loc.
func Lines(view model.UpcomingSchedule, loc *time.Location) []string {
	const layout = "Mon 02/01/2006 15:04"
	out := make([]string, 0, len(view.UpcomingEvents))
	for _, ev := range view.UpcomingEvents {
		var line string
		switch e := ev.(type) {
		case model.DefaultRaidOccurrence:
			line = "Raid " + e.Instant.In(loc).Format(layout)
			if e.Cancellation.IsCancelled {
				line += " (cancelled)"
				if c, ok := e.Cancellation.Comment.Get(); ok {
					line += ": " + c
				}
			} else if c, ok := e.Comment.Get(); ok {
				line += ": " + c
			}
		case model.ExceptionalRaidOccurrence:
			line = "Exceptional raid " + e.Instant.In(loc).Format(layout)
			if c, ok := e.Comment.Get(); ok {
				line += ": " + c
			}
		case model.AbsenceOccurrence:
			line = fmt.Sprintf("Absent on %s: %s", e.Date.StartOfDay().Format("Mon 02/01/2006"), e.UserID)
			if c, ok := e.Comment.Get(); ok {
				line += " (" + c + ")"
			}
		}
		out = append(out, line)
	}
	return out
}

// WebhookNotifier posts each digest as JSON to URL.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

type webhookPayload struct {
	Community   string    `json:"community"`
	GeneratedAt time.Time `json:"generatedAt"`
	TimezoneID  string    `json:"timezoneId"`
	Lines       []string  `json:"lines"`
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, d Digest) error {
	loc, err := timezone.LoadZone(d.Schedule.TimezoneID)
	if err != nil {
		loc = time.UTC
	}
	body, err := json.Marshal(webhookPayload{
		Community:   d.CommunityID,
		GeneratedAt: d.GeneratedAt,
		TimezoneID:  d.Schedule.TimezoneID,
		Lines:       Lines(d.Schedule, loc),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %s", resp.Status)
	}
	return nil
}
