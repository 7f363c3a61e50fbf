package sender

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/qoncrete/qoncrete-go/internal/domain"
	"github.com/qoncrete/qoncrete-go/pkg/log"
)

// UserAgent is sent with every request.
const UserAgent = "qoncrete-go/" + Version

const (
	// maxErrorBody caps how much of a failing response is kept as the message.
	maxErrorBody = 4 << 10

	// maxDrain caps how much of a response is read to let the connection be reused.
	maxDrain = 64 << 10

	timeoutMessage = "The request took too long time."
)

// Config controls delivery behaviour.
type Config struct {
	Endpoints Endpoints

	// Timeout bounds each attempt.
	Timeout time.Duration

	// RetryOnTimeout is how many extra attempts a batch gets after
	// timeout-class failures.
	RetryOnTimeout int

	// RetryBackoff is the delay before the first retry; 0 retries at once.
	RetryBackoff time.Duration
}

// HTTPSender implements Sender over HTTP.
type HTTPSender struct {
	client HTTPClient
	config Config
	logger log.Logger
}

// NewHTTPSender creates a new HTTP sender.
func NewHTTPSender(client HTTPClient, cfg Config, logger log.Logger) *HTTPSender {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPSender{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Deliver posts the batch, retrying timeouts while budget remains.
func (s *HTTPSender) Deliver(ctx context.Context, b domain.Batch) domain.Result {
	res := domain.Result{Records: b.Size()}
	if b.Empty() {
		return res
	}

	url := s.config.Endpoints.For(b.Size())
	body := b.Body()
	budget := s.config.RetryOnTimeout
	back := newBackoff(s.config.RetryBackoff, 10*s.config.RetryBackoff)

	for {
		res.Attempts++
		status, msg, err := s.attempt(ctx, url, body)

		if err == nil {
			res.Status = status
			switch {
			case status == http.StatusNoContent:
				res.Outcome = domain.Success
			case status >= 400 && status < 500:
				res.Outcome = domain.ClientError
				res.Message = responseMessage(status, msg)
			default:
				res.Outcome = domain.ServerError
				res.Message = responseMessage(status, msg)
			}
			return res
		}

		if ctx.Err() != nil || !isTimeout(err) {
			res.Outcome = domain.NetworkError
			res.Message = err.Error()
			return res
		}

		if budget <= 0 {
			res.Outcome = domain.TimedOut
			res.Message = timeoutMessage
			return res
		}
		budget--

		s.logger.Warn("delivery timed out, retrying",
			log.Int("records", b.Size()),
			log.Int("attempt", res.Attempts),
			log.Int("retries_left", budget),
		)
		if err := back.Wait(ctx); err != nil {
			res.Outcome = domain.NetworkError
			res.Message = err.Error()
			return res
		}
	}
}

// attempt performs one POST. A non-nil error means no response was received.
func (s *HTTPSender) attempt(ctx context.Context, url string, body []byte) (int, string, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	var msg []byte
	if resp.StatusCode != http.StatusNoContent {
		msg, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return resp.StatusCode, string(msg), nil
}

func responseMessage(status int, body string) string {
	if body != "" {
		return body
	}
	return http.StatusText(status)
}

// isTimeout reports whether a transport error is worth retrying.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
