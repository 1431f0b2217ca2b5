package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under "user_id". A nil id yields an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// PlanID records the subscription plan under "plan_id".
func PlanID[T ~string](id T) slog.Attr {
	return slog.String("plan_id", string(id))
}

// Category records the feature category under "category".
func Category[T ~string](c T) slog.Attr {
	return slog.String("category", string(c))
}

// Feature records the feature name under "feature".
func Feature[T ~string](f T) slog.Attr {
	return slog.String("feature", string(f))
}

// Limit records the usage limit name under "limit".
func Limit[T ~string](l T) slog.Attr {
	return slog.String("limit", string(l))
}

// Decision records the decision kind under "decision".
func Decision[T ~string](kind T) slog.Attr {
	return slog.String("decision", string(kind))
}

// Quota groups the usage figures of a limit under "quota".
func Quota(current, max int64) slog.Attr {
	return Group("quota", slog.Int64("current", current), slog.Int64("max", max))
}

// RequestID records the request identifier under "request_id". A nil id yields an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
