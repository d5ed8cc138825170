package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"healthbot/pkg"
)

// Notifier announces newly synchronised outbreaks through PostgreSQL
// LISTEN/NOTIFY so other processes sharing the database can react.  It only
// works against the postgres driver.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

type outbreakNotice struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Announce sends one notification per outbreak.  The payload is a small JSON
// object; NOTIFY payloads are limited to 8000 bytes so the summary is left
// out.
func (n *Notifier) Announce(ctx context.Context, outbreaks []pkg.DiseaseOutbreak) error {
	for _, o := range outbreaks {
		payload, err := json.Marshal(outbreakNotice{ID: o.ID, Title: o.Title, URL: o.URL})
		if err != nil {
			return fmt.Errorf("marshal notice: %w", err)
		}
		// NOTIFY does not accept bind parameters; pg_notify does.
		if _, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, string(payload)); err != nil {
			return fmt.Errorf("notify %s: %w", n.Channel, err)
		}
	}
	return nil
}
