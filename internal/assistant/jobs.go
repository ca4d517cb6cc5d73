package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"educontrol/internal/metrics"
	"educontrol/internal/model"
	"educontrol/internal/queue"
)

// Kind names what a job asks the service for.
type Kind string

const (
	KindChat             Kind = "chat"
	KindStudentReport    Kind = "student_report"
	KindCollectiveReport Kind = "collective_report"
)

// collegeKey is the single-flight key of collective reports.
const collegeKey = "college"

const messageType = "ai_job"

// staleGrace is added to the call timeout before a pending job counts as abandoned.
// Runners without a timeout use staleGrace alone.
const staleGrace = 10 * time.Minute

// ErrAbandoned is recorded on jobs whose runner went away before finishing them.
var ErrAbandoned = errors.New("job abandoned before it finished")

type JobStore interface {
	Claim(ctx context.Context, j model.Job) (model.Job, bool, error)
	Put(ctx context.Context, j model.Job) error
	Get(ctx context.Context, id string) (model.Job, error)
	Pending(ctx context.Context) ([]model.Job, error)
}

type HistoryStore interface {
	History(ctx context.Context, userID string) ([]model.Turn, error)
	Append(ctx context.Context, userID string, turns ...model.Turn) error
}

type chatInput struct {
	Message string `json:"message"`
}

type reportInput struct {
	Name string          `json:"name,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Runner turns AI requests into jobs and executes them from a queue.
// Only one job per kind and key can be pending at a time.
type Runner struct {
	jobs    JobStore
	history HistoryStore
	client  Client
	queue   queue.Queue
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewRunner creates a runner. A zero timeout means calls are not bounded.
func NewRunner(jobs JobStore, history HistoryStore, client Client, q queue.Queue, timeout time.Duration) *Runner {
	return &Runner{
		jobs:    jobs,
		history: history,
		client:  client,
		queue:   q,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SubmitChat queues a chat turn for userID.
func (r *Runner) SubmitChat(ctx context.Context, userID, message string) (model.Job, bool, error) {
	return r.submit(ctx, KindChat, userID, userID, chatInput{Message: message})
}

// SubmitStudentReport queues a personal report for studentID.
func (r *Runner) SubmitStudentReport(ctx context.Context, ownerID, studentID, name string, data any) (model.Job, bool, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return model.Job{}, false, err
	}
	return r.submit(ctx, KindStudentReport, studentID, ownerID, reportInput{Name: name, Data: raw})
}

// SubmitCollectiveReport queues the institution-wide report.
func (r *Runner) SubmitCollectiveReport(ctx context.Context, ownerID string, data any) (model.Job, bool, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return model.Job{}, false, err
	}
	return r.submit(ctx, KindCollectiveReport, collegeKey, ownerID, reportInput{Data: raw})
}

func (r *Runner) submit(ctx context.Context, kind Kind, key, owner string, input any) (model.Job, bool, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return model.Job{}, false, err
	}
	job := model.Job{
		ID:        r.newID(),
		Kind:      string(kind),
		Key:       key,
		OwnerID:   owner,
		Input:     raw,
		State:     model.JobPending,
		CreatedAt: r.now().UnixMilli(),
	}
	claimed, created, err := r.jobs.Claim(ctx, job)
	if err != nil {
		return model.Job{}, false, err
	}
	if !created && r.stale(claimed) {
		log.Printf("ai job %s (%s) pending since %d, failing it", claimed.ID, claimed.Kind, claimed.CreatedAt)
		if done := r.finish(ctx, claimed, "", ErrAbandoned); done.State == model.JobPending {
			return claimed, false, nil
		}
		claimed, created, err = r.jobs.Claim(ctx, job)
		if err != nil {
			return model.Job{}, false, err
		}
	}
	if !created {
		return claimed, false, nil
	}
	if err := r.queue.Publish(ctx, queue.Message{Type: messageType, Body: []byte(job.ID)}); err != nil {
		job = r.finish(ctx, job, "", fmt.Errorf("enqueue: %w", err))
		return job, true, nil
	}
	return job, true, nil
}

// stale reports whether a pending job has outlived any runner that could still finish it.
func (r *Runner) stale(job model.Job) bool {
	limit := r.timeout + staleGrace
	return r.now().Sub(time.UnixMilli(job.CreatedAt)) > limit
}

// Abandon fails every pending job with its fallback text. A process that owns the
// only queue consumer calls it on start, since jobs queued before a restart are lost.
func (r *Runner) Abandon(ctx context.Context) (int, error) {
	pending, err := r.jobs.Pending(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, job := range pending {
		if r.finish(ctx, job, "", ErrAbandoned).State != model.JobPending {
			n++
		}
	}
	return n, nil
}

// Run consumes the queue until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	messages, err := r.queue.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != messageType {
			continue
		}
		metrics.AIQueueWait.Observe(msg.Wait(time.Now()).Seconds())
		id := string(msg.Body)
		if err := r.Process(ctx, id); err != nil {
			log.Printf("ai job %s: %v", id, err)
		}
	}
	return nil
}

// Process executes a pending job and stores its outcome. Finished jobs are skipped.
func (r *Runner) Process(ctx context.Context, id string) error {
	job, err := r.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Done() {
		return nil
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := r.now()
	text, execErr := r.execute(callCtx, job)
	metrics.AIJobDuration.WithLabelValues(job.Kind).Observe(r.now().Sub(start).Seconds())

	if execErr != nil {
		log.Printf("ai job %s (%s) failed: %v", job.ID, job.Kind, execErr)
	}
	job = r.finish(ctx, job, text, execErr)
	if job.State == model.JobPending {
		return fmt.Errorf("job %s was not stored", id)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, job model.Job) (string, error) {
	switch Kind(job.Kind) {
	case KindChat:
		var in chatInput
		if err := json.Unmarshal(job.Input, &in); err != nil {
			return "", err
		}
		history, err := r.history.History(ctx, job.OwnerID)
		if err != nil {
			return "", err
		}
		reply, err := r.client.Chat(ctx, in.Message, history)
		if err != nil {
			return "", err
		}
		err = r.history.Append(ctx, job.OwnerID,
			model.Turn{Role: "user", Text: in.Message},
			model.Turn{Role: "model", Text: reply},
		)
		return reply, err

	case KindStudentReport, KindCollectiveReport:
		var in reportInput
		if err := json.Unmarshal(job.Input, &in); err != nil {
			return "", err
		}
		var (
			prompt string
			err    error
		)
		if Kind(job.Kind) == KindStudentReport {
			prompt, err = StudentReportPrompt(in.Name, in.Data)
		} else {
			prompt, err = CollectiveReportPrompt(in.Data)
		}
		if err != nil {
			return "", err
		}
		return r.client.Generate(ctx, prompt, Kind(job.Kind) == KindCollectiveReport)
	}
	return "", fmt.Errorf("unknown job kind %q", job.Kind)
}

// finish stores the final state. On failure the result is the kind's fallback text.
// The write outlives ctx so that a shutdown mid-call still records the outcome.
// The returned job is still pending when it could not be stored.
func (r *Runner) finish(ctx context.Context, job model.Job, text string, err error) model.Job {
	ctx = context.WithoutCancel(ctx)
	done := job
	done.FinishedAt = r.now().UnixMilli()
	if err != nil {
		done.State = model.JobFailed
		done.Error = err.Error()
		done.Result = Fallback(Kind(job.Kind))
	} else {
		done.State = model.JobSucceeded
		done.Result = text
	}
	if perr := r.jobs.Put(ctx, done); perr != nil {
		log.Printf("store ai job %s: %v", job.ID, perr)
		return job
	}
	metrics.AIJobs.WithLabelValues(done.Kind, string(done.State)).Inc()
	return done
}

// Fallback returns the fixed reply shown when a job of kind fails.
func Fallback(kind Kind) string {
	switch kind {
	case KindChat:
		return ChatFallback
	case KindCollectiveReport:
		return CollectiveReportFallback
	default:
		return StudentReportFallback
	}
}
