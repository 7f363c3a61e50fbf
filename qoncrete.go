// Package qoncrete ships structured log records to the Qoncrete ingestion
// service without making callers pay for a network round trip per record.
//
// Records passed to Send are accumulated and cut into batches of at most
// BatchSize records, either as soon as a batch is full or when AutoSendAfter
// elapses without a cut. Batches are delivered by at most Concurrency
// parallel requests; timeouts are retried RetryOnTimeout times, and every
// final failure goes to the error logger.
//
// Example usage:
//
//	cfg := qoncrete.DefaultConfig()
//	cfg.SourceID = "..."
//	cfg.APIToken = "..."
//	client, err := qoncrete.New(cfg, qoncrete.WithErrorLogger(func(err error) {
//	    log.Println(err)
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//
//	client.Send(map[string]any{"user": "toto", "action": "purchase", "price": 99.99})
//
// Pending records are held in memory only. Records still pending or queued
// when Close is called are dropped; call Flush first to deliver them.
package qoncrete

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qoncrete/qoncrete-go/internal/batch"
	"github.com/qoncrete/qoncrete-go/internal/domain"
	"github.com/qoncrete/qoncrete-go/pkg/dispatch"
	"github.com/qoncrete/qoncrete-go/pkg/dnscache"
	"github.com/qoncrete/qoncrete-go/pkg/lifecycle"
	"github.com/qoncrete/qoncrete-go/pkg/log"
	"github.com/qoncrete/qoncrete-go/pkg/sender"
)

// Client batches records and delivers them. It is safe for concurrent use.
type Client struct {
	config Config
	logger log.Logger
	report func(error)

	acc       *batch.Accumulator
	scheduler *batch.Scheduler
	disp      *dispatch.Dispatcher
	sender    sender.Sender
	dns       *dnscache.Cache
	lifecycle *lifecycle.Manager
	stop      context.CancelFunc

	// cutMu keeps cut order and enqueue order identical.
	cutMu sync.Mutex
}

// Stats is a snapshot of the client's queues.
type Stats struct {
	// Pending is the number of records waiting to be batched.
	Pending int

	// Queued is the number of batches waiting for a free request slot.
	Queued int

	// InFlight is the number of batches being delivered.
	InFlight int
}

// New validates cfg and creates a running client.
// Validation failures are returned as *Error of kind CLIENT_ERROR.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	var dns *dnscache.Cache
	httpClient := o.httpClient
	if httpClient == nil {
		var dial sender.DialContextFunc
		if cfg.CacheDNS {
			dns = dnscache.New(dnscache.DefaultRefreshInterval, logger)
			dial = dns.DialContext(sender.NewDialer())
		}
		httpClient = sender.NewHTTPClient(dial)
	}

	baseURL := cfg.ServiceURL
	if baseURL == "" {
		baseURL = sender.BaseURL(cfg.SecureTransport)
	}
	snd := sender.NewHTTPSender(httpClient, sender.Config{
		Endpoints:      sender.NewEndpoints(baseURL, cfg.SourceID, cfg.APIToken),
		Timeout:        cfg.TimeoutAfter,
		RetryOnTimeout: cfg.RetryOnTimeout,
		RetryBackoff:   cfg.RetryBackoff,
	}, logger)

	c := &Client{
		config:    cfg,
		logger:    logger,
		report:    o.errorLogger,
		acc:       batch.NewAccumulator(cfg.BatchSize, cfg.MaxPending),
		disp:      dispatch.New(cfg.Concurrency, logger),
		sender:    snd,
		dns:       dns,
		lifecycle: lifecycle.NewManager(logger, o.emitter),
	}

	if dns != nil {
		dns.Start()
	}

	if cfg.AutoBatch {
		ctx, cancel := context.WithCancel(context.Background())
		c.stop = cancel
		c.scheduler = batch.NewScheduler(cfg.AutoSendAfter, c.flushTick)
		c.lifecycle.AddWorker()
		go func() {
			defer c.lifecycle.WorkerDone()
			c.scheduler.Run(ctx)
		}()
	}

	logger.Info("client started",
		log.String("endpoint", baseURL),
		log.Int("batch_size", cfg.BatchSize),
		log.Bool("auto_batch", cfg.AutoBatch),
		log.Int("concurrency", cfg.Concurrency),
	)
	return c, nil
}

// Send submits a record, a slice of records, or a JSON string or []byte
// holding one record or an array of them. It never blocks on the network.
// Invalid input is reported to the error logger as INVALID_BODY.
func (c *Client) Send(data any) {
	records, err := domain.DecodeRecords(data)
	if err != nil {
		c.fail(err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := c.add(records); err != nil {
		c.fail(err)
	}
}

// add appends records and dispatches every batch that is due. The returned
// error is reported after cutMu is released.
func (c *Client) add(records []domain.Record) error {
	c.cutMu.Lock()
	defer c.cutMu.Unlock()

	// Close drains the accumulator under cutMu after leaving Running, so
	// records added here are either drained or rejected.
	if !c.lifecycle.Running() {
		return &domain.Error{Kind: domain.KindClientError, Message: "client is closed", Records: len(records)}
	}

	var err error
	if rejected := c.acc.Add(records...); rejected > 0 {
		c.logger.Warn("pending queue full, dropping records",
			log.Int("dropped", rejected),
			log.Int("max_pending", c.config.MaxPending),
		)
		err = &domain.Error{
			Kind:    domain.KindClientError,
			Message: fmt.Sprintf("pending queue full: %d records dropped", rejected),
			Records: rejected,
		}
	}

	var batches []domain.Batch
	if c.config.AutoBatch {
		batches = c.acc.CutFull()
	} else {
		batches = c.acc.CutAll()
	}
	if len(batches) == 0 {
		return err
	}
	c.resetTimer()
	for _, b := range batches {
		c.dispatch(b, nil)
	}
	return err
}

// Deliver sends data right away, bypassing the accumulator, and waits for
// the outcome. Input larger than BatchSize is split into several requests;
// their failures are joined. Failures also reach the error logger.
func (c *Client) Deliver(ctx context.Context, data any) error {
	if !c.lifecycle.Running() {
		err := domain.NewError(domain.KindClientError, "client is closed")
		c.fail(err)
		return err
	}

	records, err := domain.DecodeRecords(data)
	if err != nil {
		c.fail(err)
		return err
	}

	var chunks []domain.Batch
	for len(records) > 0 {
		n := min(c.config.BatchSize, len(records))
		chunks = append(chunks, domain.NewBatch(records[:n]))
		records = records[n:]
	}

	results := make(chan error, len(chunks))
	for _, b := range chunks {
		c.dispatch(b, func(err error) { results <- err })
	}

	var errs []error
	for range chunks {
		select {
		case err := <-results:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

// Flush cuts every pending record into batches, dispatches them, and waits
// until no delivery is queued or running. Delivery failures go to the error
// logger; Flush only returns ctx.Err().
func (c *Client) Flush(ctx context.Context) error {
	c.cutMu.Lock()
	batches := c.acc.CutAll()
	if len(batches) > 0 {
		c.resetTimer()
	}
	for _, b := range batches {
		c.dispatch(b, nil)
	}
	c.cutMu.Unlock()

	return c.disp.Idle(ctx)
}

// Close stops the flush timer, drops pending records and queued batches,
// and waits for in-flight requests until ctx ends (or ShutdownTimeout when
// ctx has no deadline).
func (c *Client) Close(ctx context.Context) error {
	if err := c.lifecycle.TransitionTo(lifecycle.StateClosing, "Close() called"); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ShutdownTimeout)
		defer cancel()
	}

	if c.stop != nil {
		c.stop()
	}
	werr := c.lifecycle.Wait(ctx)

	c.cutMu.Lock()
	abandoned := c.acc.Drain()
	c.cutMu.Unlock()
	if abandoned > 0 {
		c.logger.Warn("dropping pending records on close", log.Int("records", abandoned))
	}

	_, derr := c.disp.Close(ctx)

	if c.dns != nil {
		c.dns.Stop()
	}

	_ = c.lifecycle.TransitionTo(lifecycle.StateClosed, "shutdown complete")
	return errors.Join(werr, derr)
}

// Stats returns the current queue sizes.
func (c *Client) Stats() Stats {
	return Stats{
		Pending:  c.acc.Len(),
		Queued:   c.disp.Pending(),
		InFlight: c.disp.InFlight(),
	}
}

// flushTick runs on every scheduler tick and cuts at most one batch.
func (c *Client) flushTick() {
	c.cutMu.Lock()
	defer c.cutMu.Unlock()

	b := c.acc.Cut()
	if b.Empty() {
		return
	}
	c.logger.Debug("flush timer cut batch", log.Int("records", b.Size()))
	c.dispatch(b, nil)
}

func (c *Client) resetTimer() {
	if c.scheduler != nil {
		c.scheduler.Reset()
	}
}

// dispatch queues the delivery of b. done, if set, receives the classified
// error (nil on success) exactly once.
func (c *Client) dispatch(b domain.Batch, done func(error)) {
	closed := func() {
		err := &domain.Error{Kind: domain.KindClientError, Message: "client is closed", Records: b.Size()}
		c.fail(err)
		if done != nil {
			done(err)
		}
	}

	// Batches from Send that are dropped on close are only logged by the
	// dispatcher; a waiting Deliver must be told.
	var dropped func()
	if done != nil {
		dropped = closed
	}

	accepted := c.disp.EnqueueWithDrop(func(ctx context.Context) {
		res := c.sender.Deliver(ctx, b)
		err := c.classify(res)
		if done != nil {
			done(err)
		}
	}, dropped)
	if !accepted {
		closed()
	}
}

func (c *Client) classify(res domain.Result) error {
	qe := domain.Classify(res)
	if qe == nil {
		c.logger.Debug("delivered batch",
			log.Int("records", res.Records),
			log.Int("attempts", res.Attempts),
		)
		return nil
	}
	c.logger.Error("delivery failed",
		log.String("kind", qe.Kind.String()),
		log.Int("status", qe.Status),
		log.Int("records", qe.Records),
		log.Int("attempts", res.Attempts),
		log.String("message", qe.Message),
	)
	c.fail(qe)
	return qe
}

func (c *Client) fail(err error) {
	c.report(err)
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log":       {log.Version, log.MinCompatibleVersion},
		"sender":    {sender.Version, sender.MinCompatibleVersion},
		"dispatch":  {dispatch.Version, dispatch.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion ("major.minor.patch").
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
