package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"go.uber.org/zap"
)

const (
	operationLocationHeader = "Operation-Location"

	DefaultPollAttempts = 20
	DefaultPollInterval = 2 * time.Second
)

// Service handles OCR operations against the Azure Computer Vision Read API
type Service struct {
	client   computervision.BaseClient
	endpoint string
	attempts int
	interval time.Duration
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPolling overrides the poll budget.
func WithPolling(attempts int, interval time.Duration) Option {
	return func(s *Service) {
		s.attempts = attempts
		s.interval = interval
	}
}

// WithSender replaces the HTTP sender, mostly for tests.
func WithSender(sender autorest.Sender) Option {
	return func(s *Service) {
		s.client.Sender = sender
	}
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService creates a new OCR service. endpoint is the full analyze URL the
// documents are posted to.
func NewService(endpoint, apiKey string, opts ...Option) *Service {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	s := &Service{
		client:   client,
		endpoint: endpoint,
		attempts: DefaultPollAttempts,
		interval: DefaultPollInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit posts the raw document and returns the URL to poll for its result.
func (s *Service) Submit(ctx context.Context, data []byte) (string, error) {
	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsPost(),
		autorest.WithBaseURL(s.endpoint),
		autorest.AsOctetStream(),
		autorest.WithBytes(&data))
	if err != nil {
		return "", fmt.Errorf("failed to prepare submit request: %w", err)
	}

	// Sent without the client's retry decorators: a rejected submission is
	// reported as is.
	resp, err := autorest.SendWithSender(s.client, req)
	if err != nil {
		return "", fmt.Errorf("failed to submit document: %w", err)
	}

	if !autorest.ResponseHasStatusCode(resp, http.StatusAccepted) {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return "", &SubmissionError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	operationURL := autorest.ExtractHeaderValue(operationLocationHeader, resp)
	if err := autorest.Respond(resp, autorest.ByDiscardingBody(), autorest.ByClosing()); err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}
	if operationURL == "" {
		return "", ErrNoOperationLocation
	}

	s.log.Debug("Document submitted", zap.Int("bytes", len(data)))
	return operationURL, nil
}

// Status fetches the current state of a read operation.
func (s *Service) Status(ctx context.Context, operationURL string) (result computervision.ReadOperationResult, err error) {
	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsGet(),
		autorest.WithBaseURL(operationURL))
	if err != nil {
		return result, fmt.Errorf("failed to prepare status request: %w", err)
	}

	resp, err := autorest.SendWithSender(s.client, req)
	if err != nil {
		return result, fmt.Errorf("failed to fetch read result: %w", err)
	}

	if !autorest.ResponseHasStatusCode(resp, http.StatusOK) {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return result, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	err = autorest.Respond(resp,
		autorest.ByUnmarshallingJSON(&result),
		autorest.ByClosing())
	result.Response = autorest.Response{Response: resp}
	if err != nil {
		return result, fmt.Errorf("failed to read read result: %w", err)
	}
	return result, nil
}

// Recognize submits data, waits for the read operation to finish and
// returns the recognised lines.
func (s *Service) Recognize(ctx context.Context, data []byte) (*Result, error) {
	operationURL, err := s.Submit(ctx, data)
	if err != nil {
		return nil, err
	}

	var last computervision.ReadOperationResult
	polls := 0
	outcome, err := Poll(ctx, s.attempts, s.interval, func(ctx context.Context) (Outcome, error) {
		polls++
		res, err := s.Status(ctx, operationURL)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				// throttled or a transient server error, let the budget decide
				s.log.Warn("Status poll not answered",
					zap.Int("status_code", statusErr.StatusCode),
					zap.Int("poll", polls))
				return Pending, nil
			}
			return Pending, err
		}
		last = res
		return outcomeOf(res.Status), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to poll read operation: %w", err)
	}

	s.log.Debug("Read operation finished",
		zap.Stringer("outcome", outcome),
		zap.Int("polls", polls))

	switch outcome {
	case Failed:
		return nil, ErrAnalysisFailed
	case TimedOut:
		return nil, ErrTimedOut
	}

	return ExtractResult(last), nil
}

func outcomeOf(status computervision.OperationStatusCodes) Outcome {
	switch strings.ToLower(string(status)) {
	case "succeeded":
		return Succeeded
	case "failed":
		return Failed
	default:
		return Pending
	}
}
