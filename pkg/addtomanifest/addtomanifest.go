// Package addtomanifest receives an object creation event, identifies the data sources the
// file belongs to and adds the file to the manifest of each of them.
package addtomanifest

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/UKHomeOffice/addtomanifest/internal/logging"
	"github.com/UKHomeOffice/addtomanifest/pkg/event"
	"github.com/UKHomeOffice/addtomanifest/pkg/secrets"
	"github.com/UKHomeOffice/addtomanifest/pkg/source"
)

// ConfigLoader supplies the current source definitions
type ConfigLoader interface {
	Load(ctx context.Context) ([]source.Definition, error)
}

// CredentialProvider supplies the Notify API credentials
type CredentialProvider interface {
	Credentials(ctx context.Context) (secrets.Credentials, error)
}

// Notifier records a file against the manifest of a source
type Notifier interface {
	AddToManifest(ctx context.Context, fileURL string, src source.Definition, creds secrets.Credentials) error
}

// NotificationError reports a failed dispatch to one source
type NotificationError struct {
	SourceID string
	FileURL  string
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification error: source %v, file %v: %v", e.SourceID, e.FileURL, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// Outcome is the result of dispatching a file to one source
type Outcome struct {
	Source source.Definition
	Err    error
}

// Result describes one invocation
type Result struct {
	FileURL  string
	Outcomes []Outcome
}

// Matched returns the ids of the sources that claimed the file
func (r Result) Matched() []string {
	ids := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		ids = append(ids, o.Source.ID)
	}
	return ids
}

// Failed returns the outcomes whose dispatch failed
func (r Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Handler is the add to manifest pipeline
type Handler struct {
	cfg       ConfigLoader
	creds     CredentialProvider
	ntf       Notifier
	urlPrefix string
	log       *zap.Logger
}

// NewHandler returns a new Handler
func NewHandler(c ConfigLoader, cp CredentialProvider, n Notifier, urlPrefix string, log *zap.Logger) *Handler {
	return &Handler{cfg: c, creds: cp, ntf: n, urlPrefix: urlPrefix, log: log}
}

// Handle processes one raw event envelope
func (h *Handler) Handle(ctx context.Context, raw []byte) (Result, error) {

	log := logging.ForInvocation(ctx, h.log)

	pld, err := event.Payload(raw)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode event: %w", err)
	}
	log.Info("triggered by object event", zap.ByteString("payload", pld))

	fe, err := event.Parse(pld)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode event: %w", err)
	}

	res := Result{FileURL: fe.URL(h.urlPrefix)}
	log = log.With(zap.String("file_url", res.FileURL))

	defs, err := h.cfg.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load source configuration: %w", err)
	}

	matched, err := source.Identify(res.FileURL, defs)
	if err != nil {
		return res, fmt.Errorf("failed to identify sources: %w", err)
	}

	if len(matched) == 0 {
		log.Info("source not identified", zap.Int("sources", len(defs)))
		return res, nil
	}
	log.Info("sources identified", zap.Strings("source_ids", source.IDs(matched)))

	creds, err := h.creds.Credentials(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to get Notify API credentials: %w", err)
	}

	res.Outcomes = h.dispatch(ctx, log, res.FileURL, matched, creds)

	var errs error
	for _, o := range res.Failed() {
		errs = multierr.Append(errs, o.Err)
	}
	return res, errs
}

// dispatch notifies every matched source once, in order, whatever the earlier outcomes
func (h *Handler) dispatch(ctx context.Context, log *zap.Logger, fileURL string, matched []source.Definition, creds secrets.Credentials) []Outcome {

	outcomes := make([]Outcome, 0, len(matched))
	for _, src := range matched {
		srcLog := log.With(zap.String("source_id", src.ID))
		srcLog.Info("processing source")

		o := Outcome{Source: src}
		err := h.ntf.AddToManifest(ctx, fileURL, src, creds)
		if err != nil {
			o.Err = &NotificationError{SourceID: src.ID, FileURL: fileURL, Err: err}
			srcLog.Error("failed to add file to manifest", zap.Error(err))
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}
