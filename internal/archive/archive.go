// Package archive keeps a copy of every definition handed to the publisher,
// with a manifest describing it, in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/workflow/render"
)

const (
	definitionObject = "definition.json"
	manifestObject   = "manifest.json"
	contentTypeJSON  = "application/json"
)

type Archiver struct {
	store  Store
	bucket string
	prefix string
	now    func() time.Time
}

func New(store Store, bucket, prefix string) (*Archiver, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("bucket is required")
	}
	return &Archiver{
		store:  store,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}, nil
}

// Location is where an archived definition was written.
type Location struct {
	Bucket        string
	DefinitionKey string
	ManifestKey   string
}

func (l Location) URI() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.DefinitionKey)
}

// Archive writes definition and its manifest under
// <prefix>/<workflow>/<publicationID>/.
func (a *Archiver) Archive(ctx context.Context, wf domain.Workflow, definition []byte, publicationID string) (Location, error) {
	publicationID = strings.TrimSpace(publicationID)
	if publicationID == "" {
		return Location{}, errors.New("publication id is required")
	}
	manifest, err := render.Manifest(wf, definition, publicationID, a.now())
	if err != nil {
		return Location{}, fmt.Errorf("render manifest: %w", err)
	}

	dir := path.Join(a.prefix, workflowDir(wf), publicationID)
	loc := Location{
		Bucket:        a.bucket,
		DefinitionKey: path.Join(dir, definitionObject),
		ManifestKey:   path.Join(dir, manifestObject),
	}
	if err := a.put(ctx, loc.DefinitionKey, definition); err != nil {
		return Location{}, fmt.Errorf("put definition: %w", err)
	}
	if err := a.put(ctx, loc.ManifestKey, manifest); err != nil {
		return Location{}, fmt.Errorf("put manifest: %w", err)
	}
	return loc, nil
}

func (a *Archiver) put(ctx context.Context, key string, body []byte) error {
	return a.store.Put(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), contentTypeJSON)
}

// workflowDir names the per-workflow folder, falling back to the last ARN
// segment when the workflow has no name.
func workflowDir(wf domain.Workflow) string {
	name := strings.TrimSpace(wf.Name)
	if name == "" {
		arn := strings.TrimSpace(wf.StateMachineARN)
		name = arn[strings.LastIndex(arn, ":")+1:]
	}
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		return "unnamed"
	}
	return name
}
