package logger

import (
	"log/slog"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func Tier(tier string) slog.Attr { return slog.String("tier", tier) }
func Feature(name string) slog.Attr { return slog.String("feature", name) }
func Limit(name string) slog.Attr { return slog.String("limit", name) }
func Counter(name string) slog.Attr { return slog.String("counter", name) }
func EventType(name string) slog.Attr { return slog.String("event_type", name) }
func EventID(id string) slog.Attr { return slog.String("event_id", id) }
func PriceID(id string) slog.Attr { return slog.String("price_id", id) }
func Component(name string) slog.Attr { return slog.String("component", name) }
func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }
