// Package engine wires the sync subsystems together: the pending-job
// queue, the single worker that drains it, the registration gate, the
// replay fold, and the per-job processor with its device-recreation
// recovery path.
//
// The engine is an explicitly constructed object: one per device/session,
// no ambient global state. Submit is the only entry point callers use;
// it is fire-and-forget, and terminal errors surface through extension
// hooks rather than return values.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/pushsync"
	"github.com/xraph/pushsync/api"
	"github.com/xraph/pushsync/backoff"
	"github.com/xraph/pushsync/ext"
	"github.com/xraph/pushsync/id"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/metadata"
	"github.com/xraph/pushsync/middleware"
	"github.com/xraph/pushsync/queue"
	"github.com/xraph/pushsync/retry"
	"github.com/xraph/pushsync/state"
)

// Engine is the single-worker dispatcher. Submission is safe from any
// number of goroutines; job handling is strictly sequential.
type Engine struct {
	store      state.Store
	client     api.Client
	provider   metadata.Provider
	policy     retry.Policy
	extensions *ext.Registry
	mws        []middleware.Middleware
	mw         middleware.Middleware
	logger     *slog.Logger
	queue      *queue.Queue
	session    id.SessionID

	// preStartLog records jobs removed by the registration gate while no
	// device exists. The next start attempt folds them into its replay;
	// a completed start attempt (success or failure) clears the log.
	// Touched only by the worker goroutine.
	preStartLog []queue.Entry

	shutdownTimeout time.Duration

	baseCtx    context.Context
	cancelBase context.CancelFunc
	wake       chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	stopped    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration. Zero-valued fields keep the
// pushsync.DefaultConfig defaults.
func WithConfig(cfg pushsync.Config) Option {
	return func(eng *Engine) {
		if cfg.QueueCapacity > 0 {
			eng.queue = queue.New(cfg.QueueCapacity)
		}
		if cfg.RetryInitialDelay > 0 && cfg.RetryMaxDelay > 0 {
			eng.policy = retry.Policy{
				Strategy: backoff.NewExponential(cfg.RetryInitialDelay, cfg.RetryMaxDelay),
			}
		}
		if cfg.ShutdownTimeout > 0 {
			eng.shutdownTimeout = cfg.ShutdownTimeout
		}
	}
}

// WithRetryPolicy sets the retry policy for remote calls. If not set,
// retry.Forever() (indefinite retries with exponential backoff) is used.
func WithRetryPolicy(p retry.Policy) Option {
	return func(eng *Engine) { eng.policy = p }
}

// WithMetadataProvider sets the provider for registration metadata.
func WithMetadataProvider(p metadata.Provider) Option {
	return func(eng *Engine) { eng.provider = p }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.extensions.Register(e) }
}

// WithMiddleware adds middleware to the engine's per-job chain.
func WithMiddleware(m middleware.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = l
		eng.extensions.SetLogger(l)
	}
}

// New creates an Engine bound to a state store and an api client.
func New(store state.Store, client api.Client, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, pushsync.ErrNoStore
	}
	if client == nil {
		return nil, pushsync.ErrNoClient
	}

	logger := slog.Default()
	baseCtx, cancel := context.WithCancel(context.Background())
	defaults := pushsync.DefaultConfig()

	eng := &Engine{
		store:           store,
		client:          client,
		provider:        metadata.Static{},
		policy:          retry.Forever(),
		extensions:      ext.NewRegistry(logger),
		logger:          logger,
		queue:           queue.New(defaults.QueueCapacity),
		session:         id.NewSessionID(),
		shutdownTimeout: defaults.ShutdownTimeout,
		baseCtx:         baseCtx,
		cancelBase:      cancel,
		wake:            make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(eng)
	}
	eng.mw = middleware.Chain(eng.mws...)

	return eng, nil
}

// Extensions returns the engine's extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// SessionID returns the engine's unique session identifier.
func (eng *Engine) SessionID() id.SessionID { return eng.session }

// QueueLen returns the number of pending jobs.
func (eng *Engine) QueueLen() int { return eng.queue.Len() }

// Submit appends a job to the queue and wakes the worker if it is idle.
// It never blocks the caller and never drops a job silently. Submit is
// fire-and-forget: terminal errors surface through extension hooks.
func (eng *Engine) Submit(j job.Job) {
	e := eng.queue.Push(j)
	eng.extensions.EmitJobSubmitted(eng.baseCtx, e)

	select {
	case eng.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutine. It returns immediately. A stopped
// engine cannot be restarted; Start then returns pushsync.ErrEngineStopped.
func (eng *Engine) Start(_ context.Context) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	if eng.stopped {
		return pushsync.ErrEngineStopped
	}
	if eng.running {
		return nil
	}
	eng.running = true

	eng.logger.Info("sync engine starting",
		slog.String("session_id", eng.session.String()),
	)

	eng.wg.Add(1)
	go eng.runLoop()

	return nil
}

// Stop signals the worker to stop and waits for it to finish the job in
// flight. The wait is bounded by the context deadline, or by the
// configured shutdown timeout when the context has none; past the bound,
// the in-flight job's remote calls are cancelled.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.mu.Lock()
	if !eng.running {
		eng.mu.Unlock()
		return nil
	}
	eng.running = false
	eng.stopped = true
	eng.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && eng.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.shutdownTimeout)
		defer cancel()
	}

	eng.logger.Info("sync engine stopping",
		slog.String("session_id", eng.session.String()),
	)

	close(eng.stopCh)

	done := make(chan struct{})
	go func() {
		eng.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		eng.logger.Info("sync engine stopped gracefully")
	case <-ctx.Done():
		eng.logger.Warn("sync engine shutdown timed out, cancelling in-flight calls")
		eng.cancelBase()
		eng.wg.Wait()
	}

	eng.extensions.EmitShutdown(context.Background())
	return nil
}

// runLoop is the single worker. It handles the head entry, one at a time,
// in FIFO order, and checks the stop signal only between jobs: once a job
// is dequeued it runs to its defined outcome.
func (eng *Engine) runLoop() {
	defer eng.wg.Done()

	for {
		e, ok := eng.queue.Head()
		if !ok {
			select {
			case <-eng.wake:
				continue
			case <-eng.stopCh:
				return
			}
		}

		select {
		case <-eng.stopCh:
			return
		default:
		}

		eng.extensions.EmitJobStarted(eng.baseCtx, e)

		terminal := func(ctx context.Context) error {
			return eng.handle(ctx, e)
		}
		if err := eng.mw(eng.baseCtx, e, terminal); err != nil {
			eng.logger.Debug("job finished with error",
				slog.String("job_id", e.ID.String()),
				slog.String("job_kind", string(e.Job.Kind())),
				slog.String("error", err.Error()),
			)
		}
	}
}

// handle routes the head entry. Start jobs bypass the registration gate;
// everything else is dropped while no device exists, with the drop
// recorded for the next start attempt's replay.
func (eng *Engine) handle(ctx context.Context, e queue.Entry) error {
	if startJob, ok := e.Job.(job.StartRegistration); ok {
		return eng.handleStart(ctx, e, startJob)
	}

	rec, err := eng.store.Load(ctx)
	if err != nil {
		eng.queue.DropHead()
		eng.extensions.EmitJobDropped(ctx, e, ext.DropInternal, err)
		return err
	}

	if !rec.Registered() {
		// Gate: removed from the queue, nothing executed. The entry's
		// interest effect is preserved for replay via preStartLog.
		eng.queue.DropHead()
		eng.preStartLog = append(eng.preStartLog, e)
		eng.extensions.EmitJobDropped(ctx, e, ext.DropNotRegistered, pushsync.ErrNotRegistered)
		return nil
	}

	if _, ok := e.Job.(job.StopRegistration); ok {
		return eng.handleStop(ctx, e, rec)
	}

	return eng.processHead(ctx, e, rec)
}
