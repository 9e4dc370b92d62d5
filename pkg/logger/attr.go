package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TeamID records the team identifier under the key "team_id".
// If id is nil, it returns an empty Attr.
func TeamID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("team_id", id)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// EventType records the webhook event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Tier records a subscription tier under the key "tier".
func Tier(tier any) slog.Attr {
	if tier == nil {
		return slog.Attr{}
	}
	return slog.Any("tier", tier)
}

// Component records the originating component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
