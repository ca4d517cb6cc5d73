package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection keys. Each key holds one JSON document.
const (
	KeyUsers         = "edu_users"
	KeyGroups        = "edu_groups"
	KeySchedule      = "edu_schedule"
	KeyAttendance    = "edu_attendance"
	KeyGrades        = "edu_grades"
	KeyDiscipline    = "edu_discipline"
	KeyScores        = "edu_student_scores"
	KeyLibrary       = "edu_library"
	KeyNews          = "edu_news"
	KeyMessages      = "edu_direct_messages"
	KeyNotifications = "edu_notifications"
	KeyAIChat        = "edu_ai_chat_history"
	KeyAIJobs        = "edu_ai_jobs"
)

// Keys lists every collection the service knows about.
var Keys = []string{
	KeyUsers, KeyGroups, KeySchedule, KeyAttendance, KeyGrades, KeyDiscipline, KeyScores,
	KeyLibrary, KeyNews, KeyMessages, KeyNotifications, KeyAIChat, KeyAIJobs,
}

// KnownKey reports whether key is a collection key. The bare "users" key written by
// older clients maps to KeyUsers.
func KnownKey(key string) (string, bool) {
	if key == "users" {
		return KeyUsers, true
	}
	for _, k := range Keys {
		if k == key {
			return k, true
		}
	}
	return "", false
}

// Gateway reads and writes whole collections. A Put replaces the stored document.
type Gateway interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Healthy(ctx context.Context) bool
	Close() error
}

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Load decodes the document at key into a T, returning def when the key is absent.
func Load[T any](ctx context.Context, g Gateway, key string, def T) (T, error) {
	data, ok, err := g.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return def, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return def, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// Save encodes v and stores it at key.
func Save(ctx context.Context, g Gateway, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory, sqlite, postgres, redis
	DatabaseURL string
	SQLitePath  string
	RedisAddr   string
}

// Open builds the gateway named by opts.Backend.
func Open(opts Options) (Gateway, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(opts.SQLitePath)
	case "postgres":
		return NewPostgres(opts.DatabaseURL)
	case "redis":
		return NewRedis(opts.RedisAddr), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}
