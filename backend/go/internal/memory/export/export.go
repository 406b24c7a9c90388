// Package export writes a user's facts to object storage as one JSON document.
package export

import (
	"Recall_1.0/backend/go/internal/models"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectPutter is the part of *minio.Client the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Entry is one exported fact, with its value already decrypted.
type Entry struct {
	Key      string    `json:"key"`
	BaseKey  string    `json:"base_key"`
	Relation string    `json:"relation,omitempty"`
	Category string    `json:"category,omitempty"`
	Value    string    `json:"value"`
	Updated  time.Time `json:"updated_at"`
}

// Document is the exported object body.
type Document struct {
	Owner      string    `json:"owner"`
	ExportedAt time.Time `json:"exported_at"`
	Facts      []Entry   `json:"facts"`
}

// Result names the written object.
type Result struct {
	Object string `json:"object"`
	Count  int    `json:"count"`
}

// Exporter uploads export documents to a bucket.
type Exporter struct {
	putter ObjectPutter
	bucket string
	now    func() time.Time
}

// New creates an Exporter.
func New(putter ObjectPutter, bucket string) *Exporter {
	return &Exporter{putter: putter, bucket: bucket, now: time.Now}
}

// ObjectName is exports/<owner>/<unix seconds>.json.
func ObjectName(owner string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%d.json", owner, at.Unix())
}

// Export writes facts, in the given order, to a new object.
func (e *Exporter) Export(ctx context.Context, owner string, facts []*models.Fact) (*Result, error) {
	now := e.now().UTC()
	doc := Document{Owner: owner, ExportedAt: now, Facts: make([]Entry, 0, len(facts))}
	for _, f := range facts {
		doc.Facts = append(doc.Facts, Entry{
			Key:      f.StorageKey,
			BaseKey:  f.BaseKey,
			Relation: f.Relation,
			Category: f.Category,
			Value:    f.Value,
			Updated:  f.UpdatedAt,
		})
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	name := ObjectName(owner, now)
	_, err = e.putter.PutObject(ctx, e.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	return &Result{Object: name, Count: len(doc.Facts)}, nil
}
