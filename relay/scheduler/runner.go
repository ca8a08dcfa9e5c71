package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/relay"
)

// Cycler runs a single cycle.
type Cycler interface {
	RunCycle(ctx context.Context) relay.Report
}

type RunnerConfig struct {
	Cycler    Cycler
	Scheduler Scheduler

	// Min. time to wait after a cycle with a failed pull or push
	PullRetrySleep time.Duration
	PushRetrySleep time.Duration

	// Called after each cycle, optional
	OnReport func(r relay.Report)

	Logger log.Logger
}

// Runner runs cycles until it is stopped. The first cycle runs immediately.
type Runner interface {
	Start()
	Stop()
}

type runner struct {
	cycler    Cycler
	scheduler Scheduler

	pullRetrySleep time.Duration
	pushRetrySleep time.Duration

	onReport func(r relay.Report)

	logger log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	lock   sync.Mutex
}

func NewRunner(config RunnerConfig) Runner {
	r := &runner{
		cycler:         config.Cycler,
		scheduler:      config.Scheduler,
		pullRetrySleep: config.PullRetrySleep,
		pushRetrySleep: config.PushRetrySleep,
		onReport:       config.OnReport,
		logger:         config.Logger,
	}

	if r.logger == nil {
		r.logger = log.New("")
	}

	return r
}

func (r *runner) Start() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()

	r.logger.Info().Log("Started")
}

func (r *runner) Stop() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.cancel == nil {
		return
	}

	r.cancel()
	r.cancel = nil

	r.wg.Wait()

	r.logger.Info().Log("Stopped")
}

// run loops until ctx is done. Stopping doesn't cancel a running cycle, it
// waits for it to finish.
func (r *runner) run(ctx context.Context) {
	for {
		report := r.cycler.RunCycle(context.WithoutCancel(ctx))

		if r.onReport != nil {
			r.onReport(report)
		}

		next, err := r.scheduler.Next()
		if err != nil {
			r.logger.Warn().WithError(err).Log("No more cycles scheduled")
			return
		}

		wait := Delay(report, next, r.pullRetrySleep, r.pushRetrySleep)

		r.logger.Debug().WithField("wait_sec", wait.Seconds()).Log("Next cycle scheduled")

		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Delay returns how long to wait before the next cycle. It is at least the
// retry sleep for a failed pull or push of the report.
func Delay(report relay.Report, next, pullRetrySleep, pushRetrySleep time.Duration) time.Duration {
	wait := next

	if report.PullErr != nil && wait < pullRetrySleep {
		wait = pullRetrySleep
	}

	if report.PushErr != nil && wait < pushRetrySleep {
		wait = pushRetrySleep
	}

	return wait
}
