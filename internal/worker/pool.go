package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"caption-search-backend/internal/config"
	"caption-search-backend/internal/models"
	"caption-search-backend/internal/search"
	"caption-search-backend/internal/services"
)

const (
	lockTTL           = time.Hour
	cancelPollEvery   = 2 * time.Second
	blockingPopExpiry = 30 * time.Second
)

type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.SearchJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64, processed int) error
	SaveResult(ctx context.Context, id uuid.UUID, status string, result *search.BatchResult) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	ResetToPending(ctx context.Context, id uuid.UUID) error
}

type Signals interface {
	CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error)
	ClearCancel(ctx context.Context, jobID uuid.UUID)
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
	Requeue(ctx context.Context, job models.QueuedSearch) error
}

// ProviderFactory builds the transcript and title providers for one batch.
type ProviderFactory func(cfg config.SearchConfig) (search.TranscriptProvider, search.TitleProvider, error)

// YouTubeProviders opens a fresh FetchSession per batch and serves both
// providers from it.
func YouTubeProviders(cfg config.SearchConfig) (search.TranscriptProvider, search.TitleProvider, error) {
	session, err := services.NewFetchSession(services.SessionOptions{
		CookieFile:        cfg.CookieFile,
		Timeout:           cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, nil, err
	}
	yt := services.NewYouTubeService(session)
	return yt, yt, nil
}

type Pool struct {
	redis       *redis.Client
	jobs        JobStore
	signals     Signals
	providers   ProviderFactory
	cfg         config.SearchConfig
	workerCount int

	// stopCtx is cancelled by Stop; it unblocks BLPOP and interrupts
	// running searches so they can be handed back to the queue.
	stopCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	jobs JobStore,
	signals Signals,
	providers ProviderFactory,
	cfg config.SearchConfig,
	workerCount int,
) *Pool {
	if providers == nil {
		providers = YouTubeProviders
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	stopCtx, stop := context.WithCancel(context.Background())
	return &Pool{
		redis:       redisClient,
		jobs:        jobs,
		signals:     signals,
		providers:   providers,
		cfg:         cfg,
		workerCount: workerCount,
		stopCtx:     stopCtx,
		stop:        stop,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop interrupts running searches and waits for every worker to hand its
// job back and exit.
func (p *Pool) Stop() {
	p.stop()
	p.wg.Wait()
	log.Println("All workers stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		if p.stopCtx.Err() != nil {
			log.Printf("Worker %d shutting down", id)
			return
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(p.stopCtx, blockingPopExpiry, SearchQueue).Result()
		if err != nil {
			continue // Timeout, shutdown or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var queued models.QueuedSearch
		if err := json.Unmarshal([]byte(result[1]), &queued); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		locked, err := p.redis.SetNX(ctx, lockKey(queued.JobID), "1", lockTTL).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing search %s", id, queued.JobID)
		if p.Process(ctx, queued) {
			continue // Requeue already released the lock
		}

		p.redis.Del(ctx, lockKey(queued.JobID))
	}
}

// Process runs one queued search to completion, cancellation or failure
// and stores the outcome. A run interrupted by Stop is not stored; the job
// is reset to pending and requeued, and Process reports true.
func (p *Pool) Process(ctx context.Context, queued models.QueuedSearch) bool {
	job, err := p.jobs.GetByID(ctx, queued.JobID)
	if err != nil {
		log.Printf("search %s: failed to load job: %v", queued.JobID, err)
		return false
	}
	if job.Finished() {
		return false
	}

	if err := p.jobs.MarkProcessing(ctx, job.ID); err != nil {
		log.Printf("search %s: failed to mark processing: %v", job.ID, err)
	}

	transcripts, titles, err := p.providers(p.cfg)
	if err != nil {
		p.fail(ctx, job, "SESSION_FAILED", err)
		return false
	}

	var shutdown atomic.Bool
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.watchCancel(runCtx, job.ID, cancel, &shutdown)

	orch := search.NewOrchestrator(transcripts,
		search.WithTitles(titles),
		search.WithLanguageAttempts(p.cfg.LanguageAttempts()),
		search.WithMaxReferences(p.cfg.MaxReferences),
		search.WithReporter(&jobReporter{ctx: ctx, pool: p, job: job}),
		search.WithLogger(log.New(os.Stderr, "search "+job.ID.String()+": ", log.LstdFlags)),
	)

	result, err := orch.RunNormalized(runCtx, job.References, job.Keywords)
	if err != nil {
		p.fail(ctx, job, "VALIDATION_ERROR", err)
		return false
	}

	if result.Interrupted && shutdown.Load() {
		return p.requeue(ctx, job, queued)
	}

	status := models.JobStatusCompleted
	if result.Interrupted {
		status = models.JobStatusCancelled
	}

	if err := p.jobs.SaveResult(ctx, job.ID, status, result); err != nil {
		p.fail(ctx, job, "STORE_FAILED", err)
		return false
	}
	p.signals.ClearCancel(ctx, job.ID)

	p.signals.Publish(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:       job.ID,
			Status:      status,
			HitCount:    len(result.Hits),
			SkipCount:   len(result.Skipped),
			Interrupted: result.Interrupted,
		},
	})

	log.Printf("search %s: %s with %d hits, %d skipped (%d/%d references)",
		job.ID, status, len(result.Hits), len(result.Skipped), result.Processed, result.Total)
	return false
}

// requeue reports whether the job is back on the queue. On false the
// caller still holds the job lock.
func (p *Pool) requeue(ctx context.Context, job *models.SearchJob, queued models.QueuedSearch) bool {
	if err := p.jobs.ResetToPending(ctx, job.ID); err != nil {
		log.Printf("search %s: failed to reset to pending: %v", job.ID, err)
	}
	if err := p.signals.Requeue(ctx, queued); err != nil {
		log.Printf("search %s: %v", job.ID, err)
		return false
	}
	log.Printf("search %s: interrupted by shutdown, returned to queue", job.ID)
	return true
}

// watchCancel cancels the run on a user cancel request or on Stop. The
// shutdown flag tells the two apart.
func (p *Pool) watchCancel(ctx context.Context, jobID uuid.UUID, cancel context.CancelFunc, shutdown *atomic.Bool) {
	ticker := time.NewTicker(cancelPollEvery)
	defer ticker.Stop()

	for {
		if requested, err := p.signals.CancelRequested(ctx, jobID); err == nil && requested {
			log.Printf("search %s: cancellation requested", jobID)
			cancel()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-p.stopCtx.Done():
			shutdown.Store(true)
			cancel()
			return
		case <-ticker.C:
		}
	}
}

func (p *Pool) fail(ctx context.Context, job *models.SearchJob, code string, err error) {
	errMsg := err.Error()
	var verr *search.ValidationError
	if errors.As(err, &verr) {
		errMsg = verr.Field + ": " + verr.Message
	}

	log.Printf("search %s failed: %s", job.ID, errMsg)
	if err := p.jobs.MarkFailed(ctx, job.ID, errMsg); err != nil {
		log.Printf("search %s: failed to store failure: %v", job.ID, err)
	}

	p.signals.Publish(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    code,
			ErrorMessage: errMsg,
		},
	})
}

// jobReporter persists progress and forwards it to the job owner.
type jobReporter struct {
	ctx  context.Context
	pool *Pool
	job  *models.SearchJob
}

func (r *jobReporter) Progress(pr search.Progress) {
	if err := r.pool.jobs.UpdateProgress(r.ctx, r.job.ID, pr.Fraction, pr.Processed); err != nil {
		log.Printf("search %s: failed to store progress: %v", r.job.ID, err)
	}
	r.pool.signals.Publish(r.ctx, r.job.UserID, models.WSMessage{
		Type:    "progress",
		Payload: models.ProgressEvent{JobID: r.job.ID, Progress: pr},
	})
}

func (r *jobReporter) Skipped(rec search.SkipRecord) {
	r.pool.signals.Publish(r.ctx, r.job.UserID, models.WSMessage{
		Type:    "skipped",
		Payload: models.SkippedEvent{JobID: r.job.ID, SkipRecord: rec},
	})
}
