package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// Repositories bundles one typed accessor per collection over a shared gateway.
type Repositories struct {
	Users      *Users
	Groups     *Groups
	Schedule   *Schedule
	Attendance *Attendance
	Grades     *Grades
	Discipline *Discipline
	Scores     *Scores
	Library    *Library
	News       *News
	Messages   *Messages
	AIChat     *AIChat
	Jobs       *Jobs

	gateway store.Gateway
}

// New wires every repository to g.
func New(g store.Gateway) *Repositories {
	return &Repositories{
		Users:      NewUsers(g),
		Groups:     NewGroups(g),
		Schedule:   NewSchedule(g),
		Attendance: NewAttendance(g),
		Grades:     NewGrades(g),
		Discipline: NewDiscipline(g),
		Scores:     NewScores(g),
		Library:    NewLibrary(g),
		News:       NewNews(g),
		Messages:   NewMessages(g),
		AIChat:     NewAIChat(g),
		Jobs:       NewJobs(g),
		gateway:    g,
	}
}

// documentOf returns a pointer to the value a collection key decodes into.
func documentOf(key string) any {
	switch key {
	case store.KeyUsers:
		return &[]model.User{}
	case store.KeyGroups:
		return &[]model.Group{}
	case store.KeySchedule:
		return &[]model.ScheduleEntry{}
	case store.KeyAttendance:
		return &[]model.AttendanceRecord{}
	case store.KeyGrades:
		return &[]model.GradeRecord{}
	case store.KeyDiscipline:
		return &[]model.DisciplineRecord{}
	case store.KeyScores:
		return &map[string]model.Score{}
	case store.KeyLibrary:
		return &[]model.LibraryBook{}
	case store.KeyNews:
		return &[]model.NewsItem{}
	case store.KeyMessages:
		return &[]model.ChatMessage{}
	case store.KeyAIChat:
		return &map[string][]model.Turn{}
	case store.KeyAIJobs:
		return &map[string]model.Job{}
	default:
		return &[]json.RawMessage{}
	}
}

// decodeDocument checks raw against the shape stored at key and returns it re-encoded.
// Browser stores keep every value as a string, so a JSON string is unwrapped first.
func decodeDocument(key string, raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = []byte(inner)
	}
	doc := documentOf(key)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Import writes documents exported from a browser store. Unknown keys are skipped and
// returned. A document that does not decode into its collection's shape aborts the
// import before any write. When both "users" and "edu_users" are given, "edu_users" wins.
func (r *Repositories) Import(ctx context.Context, docs map[string]json.RawMessage) (imported, skipped []string, err error) {
	type pending struct {
		key  string
		data []byte
	}
	var writes []pending
	for _, k := range slices.Sorted(maps.Keys(docs)) {
		key, ok := store.KnownKey(k)
		_, canonical := docs[key]
		if !ok || (key != k && canonical) {
			skipped = append(skipped, k)
			continue
		}
		data, err := decodeDocument(key, docs[k])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalid, k, err)
		}
		writes = append(writes, pending{key: key, data: data})
	}
	for _, w := range writes {
		if err := r.gateway.Put(ctx, w.key, w.data); err != nil {
			return imported, skipped, fmt.Errorf("import %s: %w", w.key, err)
		}
		imported = append(imported, w.key)
	}
	return imported, skipped, nil
}
