// Package notifier records files against source manifests through the Notify API.
package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/UKHomeOffice/addtomanifest/internal/client"
	"github.com/UKHomeOffice/addtomanifest/pkg/secrets"
	"github.com/UKHomeOffice/addtomanifest/pkg/source"
)

// manifest states used by the Notify API
const (
	StateOpen = "OPEN"
)

// Manifest is a Notify API manifest
type Manifest struct {
	ID    string `json:"id"`
	State string `json:"state,omitempty"`
}

// Entry is a single file in a manifest
type Entry struct {
	SourceFile string `json:"sourceFile"`
}

// Notifier adds files to manifests
type Notifier struct {
	hc  *http.Client
	log *zap.Logger
}

// New returns a new notifier
func New(hc *http.Client, log *zap.Logger) *Notifier {
	return &Notifier{hc: hc, log: log}
}

// ManifestsPath returns the manifest collection of a source entity, relative to the API base url
func ManifestsPath(system, entity string) string {
	return fmt.Sprintf("tenants/local/installations/local/environments/local/source-entities/%v/%v/manifests",
		url.PathEscape(system), url.PathEscape(entity))
}

// AddToManifest records the file against the manifest of the source
func (n *Notifier) AddToManifest(ctx context.Context, fileURL string, src source.Definition, creds secrets.Credentials) error {

	attrs := src.Attributes
	if attrs.SourceSystem == "" || attrs.SourceEntity == "" {
		return fmt.Errorf("source %v has no ade_source_system or ade_source_entity", src.ID)
	}

	c, err := client.New(creds.BaseURL, creds.APIKey, creds.APIKeySecret, n.hc)
	if err != nil {
		return fmt.Errorf("could not make Notify API client: %v", err)
	}

	s := &session{
		c:    c,
		root: ManifestsPath(attrs.SourceSystem, attrs.SourceEntity),
		src:  src,
		log:  n.log.With(zap.String("source_id", src.ID), zap.String("file_url", fileURL)),
	}

	if attrs.SingleFileManifest {
		return s.single(ctx, fileURL)
	}
	return s.batch(ctx, fileURL)
}

// session holds one manifest conversation for a source
type session struct {
	c    *client.Client
	root string
	src  source.Definition
	log  *zap.Logger
}

// single puts the file in a manifest of its own and notifies it
func (s *session) single(ctx context.Context, fileURL string) error {

	id, err := s.create(ctx)
	if err != nil {
		return err
	}
	if err := s.addEntry(ctx, id, fileURL); err != nil {
		return err
	}
	return s.notify(ctx, id)
}

// batch adds the file to the open manifest, notifying it once it is full
func (s *session) batch(ctx context.Context, fileURL string) error {

	id, err := s.open(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		id, err = s.create(ctx)
		if err != nil {
			return err
		}
	}

	if err := s.addEntry(ctx, id, fileURL); err != nil {
		return err
	}

	limit := s.src.Attributes.MaxFilesInManifest
	if limit <= 0 {
		return nil
	}

	n, err := s.countEntries(ctx, id)
	if err != nil {
		return err
	}
	if n < limit {
		s.log.Debug("manifest not full", zap.String("manifest_id", id), zap.Int("entries", n), zap.Int("max_files", limit))
		return nil
	}
	return s.notify(ctx, id)
}

func (s *session) open(ctx context.Context) (string, error) {

	var ms []Manifest
	err := s.c.Call(ctx, http.MethodGet, s.root+"?state="+StateOpen, nil, &ms)
	if err != nil {
		return "", fmt.Errorf("failed to search open manifests: %w", err)
	}
	for _, m := range ms {
		if m.ID != "" {
			s.log.Debug("found open manifest", zap.String("manifest_id", m.ID))
			return m.ID, nil
		}
	}
	return "", nil
}

func (s *session) create(ctx context.Context) (string, error) {

	var params interface{} = struct{}{}
	if p := s.src.Attributes.ManifestParameters; p != nil {
		params = p
	}

	var m Manifest
	err := s.c.Call(ctx, http.MethodPost, s.root, params, &m)
	if err != nil {
		return "", fmt.Errorf("failed to create manifest: %w", err)
	}
	if m.ID == "" {
		return "", fmt.Errorf("failed to create manifest: no identifier in response")
	}

	s.log.Info("created manifest", zap.String("manifest_id", m.ID))
	return m.ID, nil
}

func (s *session) addEntry(ctx context.Context, id, fileURL string) error {

	err := s.c.Call(ctx, http.MethodPost, s.root+"/"+url.PathEscape(id)+"/entries", []Entry{{SourceFile: fileURL}}, nil)
	if err != nil {
		return fmt.Errorf("failed to add entry to manifest %v: %w", id, err)
	}
	s.log.Info("added entry to manifest", zap.String("manifest_id", id))
	return nil
}

func (s *session) countEntries(ctx context.Context, id string) (int, error) {

	var es []Entry
	err := s.c.Call(ctx, http.MethodGet, s.root+"/"+url.PathEscape(id)+"/entries", nil, &es)
	if err != nil {
		return 0, fmt.Errorf("failed to list entries of manifest %v: %w", id, err)
	}
	return len(es), nil
}

func (s *session) notify(ctx context.Context, id string) error {

	err := s.c.Call(ctx, http.MethodPost, s.root+"/"+url.PathEscape(id)+"/notify", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to notify manifest %v: %w", id, err)
	}
	s.log.Info("notified manifest", zap.String("manifest_id", id))
	return nil
}
