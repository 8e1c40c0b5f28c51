package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"feynman-backend/internal/logger"
	"feynman-backend/internal/models"
)

const (
	ConceptQueue = "queue:concept-extraction"
	maxRetries   = 3
	popTimeout   = 30 * time.Second
	lockTTL      = 10 * time.Minute
)

// ConceptProcessor runs concept extraction for one stored material.
type ConceptProcessor interface {
	ProcessConceptExtraction(ctx context.Context, materialID int64) (*models.Material, error)
}

// Notifier reports permanently failed jobs to their owner.
type Notifier interface {
	Publish(ctx context.Context, userID int64, msg models.WSMessage)
}

// Pool drains the concept-extraction queue with a fixed number of workers.
type Pool struct {
	redis       *redis.Client
	processor   ConceptProcessor
	notifier    Notifier
	log         *logger.Logger
	workerCount int
	backoff     func(retry int) time.Duration
	pollBackoff time.Duration
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, processor ConceptProcessor, notifier Notifier, workerCount int, log *logger.Logger) *Pool {
	return &Pool{
		redis:       redisClient,
		processor:   processor,
		notifier:    notifier,
		log:         log,
		workerCount: workerCount,
		backoff:     func(retry int) time.Duration { return time.Duration(1<<uint(retry)) * time.Second },
		pollBackoff: 2 * time.Second,
		stopChan:    make(chan struct{}),
	}
}

// SetProcessor wires the processor after construction, for when the
// processor itself needs the pool as its queue.
func (p *Pool) SetProcessor(processor ConceptProcessor) {
	p.processor = processor
}

// EnqueueConceptExtraction queues extraction for a material.
func (p *Pool) EnqueueConceptExtraction(ctx context.Context, userID, materialID int64) error {
	job := models.Job{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        models.JobConceptExtraction,
		ReferenceID: materialID,
		MaxRetries:  maxRetries,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := p.redis.LPush(ctx, ConceptQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	p.log.Debug("Job queued", "job_id", job.ID, "material_id", materialID)
	return nil
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Info("Started worker goroutines", "count", p.workerCount)
}

func (p *Pool) Stop() {
	select {
	case <-p.stopChan:
	default:
		close(p.stopChan)
	}
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Info("Worker shutting down", "worker", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, popTimeout, ConceptQueue).Result()
		if errors.Is(err, redis.Nil) {
			continue // Timeout, poll again
		}
		if err != nil {
			p.log.Warn("Queue read failed", "worker", id, "error", err)
			if !p.pause(p.pollBackoff) {
				return
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		p.handle(ctx, id, []byte(result[1]))
	}
}

// pause waits d unless the pool is stopped first; it reports whether the
// worker should keep going.
func (p *Pool) pause(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.stopChan:
		return false
	case <-t.C:
		return true
	}
}

// handle runs one raw job under a lock so a job is never processed twice
// at the same time.
func (p *Pool) handle(ctx context.Context, workerID int, raw []byte) {
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		p.log.Warn("Failed to parse job", "worker", workerID, "error", err)
		return
	}

	lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
	locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return // Another worker has this job
	}
	defer p.redis.Del(ctx, lockKey)

	p.log.Info("Processing job", "worker", workerID, "job_id", job.ID, "type", job.Type)

	var processErr error
	switch job.Type {
	case models.JobConceptExtraction:
		_, processErr = p.processor.ProcessConceptExtraction(ctx, job.ReferenceID)
	default:
		processErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processErr != nil {
		p.handleFailure(ctx, &job, processErr)
		return
	}
	p.log.Info("Job completed", "job_id", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	limit := job.MaxRetries
	if limit <= 0 {
		limit = maxRetries
	}

	if job.RetryCount < limit {
		p.log.Warn("Job failed, retrying", "job_id", job.ID, "attempt", job.RetryCount, "error", err)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		time.AfterFunc(p.backoff(job.RetryCount), func() {
			p.redis.LPush(context.Background(), ConceptQueue, jobBytes)
		})
		return
	}

	p.log.Error("Job failed permanently", "job_id", job.ID, "error", err)
	if p.notifier != nil {
		p.notifier.Publish(ctx, job.UserID, models.WSMessage{
			Type: models.EventError,
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: err.Error(),
			},
		})
	}
}
