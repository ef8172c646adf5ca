package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	applog "estatedesk/internal/log"
)

// Janitor periodically purges expired admin sessions.
type Janitor struct {
	sessions *SessionManager
	cron     *cron.Cron
}

func NewJanitor(sessions *SessionManager, schedule string) (*Janitor, error) {
	j := &Janitor{sessions: sessions, cron: cron.New()}
	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := j.sessions.PurgeExpired(ctx, j.sessions.now())
	if err != nil {
		applog.Background("error", "janitor.sessions", err, nil)
		return
	}
	if n > 0 {
		applog.Background("info", "janitor.sessions", nil, map[string]any{"purged": n})
	}
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop waits for a running job to finish.
func (j *Janitor) Stop() { <-j.cron.Stop().Done() }
