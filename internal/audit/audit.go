package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Auth event actions recorded in audit_logs.
const (
	ActionSignup        = "auth.signup"
	ActionLogin         = "auth.login"
	ActionLoginFailed   = "auth.login_failed"
	ActionOAuthLogin    = "auth.oauth_login"
	ActionRefresh       = "auth.refresh"
	ActionLogout        = "auth.logout"
	ActionProfileUpdate = "auth.profile_update"
)

type Entry struct {
	UserID    *string
	Action    string
	IP        *string
	UserAgent *string
	Metadata  []byte
}

// Write records an audit entry; failures are returned so callers can
// ignore them — auth flows never fail because the audit insert did.
func Write(ctx context.Context, db *pgxpool.Pool, e Entry) error {
	if db == nil {
		return nil
	}

	var metadata interface{}
	if len(e.Metadata) > 0 {
		raw := json.RawMessage(e.Metadata)
		metadata = raw
	}

	_, err := db.Exec(ctx, `
INSERT INTO audit_logs (user_id, action, ip, user_agent, metadata)
VALUES ($1, $2, $3, $4, $5)
`, e.UserID, e.Action, e.IP, e.UserAgent, metadata)

	return err
}
