// Package archive keeps a compressed copy of a journal's encrypted chain in
// S3-compatible storage before the journal is deleted.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/taskjournal/internal/codec"
	"github.com/dmitrijs2005/taskjournal/internal/server/config"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/klauspost/compress/zstd"
)

// ObjectPutter is the part of *s3.Client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Record is the archived form of a journal. Content stays encrypted.
type Record struct {
	UID        string        `cbor:"uid"`
	OwnerID    string        `cbor:"owner_id"`
	Version    int           `cbor:"version"`
	InfoUID    string        `cbor:"info_uid"`
	Info       []byte        `cbor:"info"`
	InfoTag    []byte        `cbor:"info_tag"`
	Entries    []RecordEntry `cbor:"entries"`
	ArchivedAt time.Time     `cbor:"archived_at"`
}

type RecordEntry struct {
	Seq     int64  `cbor:"seq"`
	UID     string `cbor:"uid"`
	Content []byte `cbor:"content"`
	Tag     []byte `cbor:"tag"`
}

type S3Archiver struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archiver connects to the bucket named in cfg. Static credentials are
// used when configured, otherwise the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg *config.Config) (*S3Archiver, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiver(client, cfg.S3Bucket), nil
}

// NewArchiver wraps an existing client.
func NewArchiver(client ObjectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: time.Now}
}

// Key is the object key of an archive taken at t.
func Key(ownerID, journalUID string, t time.Time) string {
	return fmt.Sprintf("journals/%s/%s/%s.cbor.zst", ownerID, journalUID, t.UTC().Format("20060102T150405Z"))
}

func (a *S3Archiver) Archive(ctx context.Context, j *models.Journal, entries []models.Entry) error {
	now := a.now()
	data, err := Encode(newRecord(j, entries, now))
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(Key(j.OwnerID, j.UID, now)),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String("application/cbor"),
		ContentEncoding: aws.String("zstd"),
	})
	if err != nil {
		return fmt.Errorf("put archive: %w", err)
	}
	return nil
}

func newRecord(j *models.Journal, entries []models.Entry, now time.Time) Record {
	rec := Record{
		UID:        j.UID,
		OwnerID:    j.OwnerID,
		Version:    j.Version,
		InfoUID:    j.InfoUID,
		Info:       j.InfoContent,
		InfoTag:    j.InfoTag,
		Entries:    make([]RecordEntry, 0, len(entries)),
		ArchivedAt: now.UTC(),
	}
	for _, e := range entries {
		rec.Entries = append(rec.Entries, RecordEntry{Seq: e.Seq, UID: e.UID, Content: e.Content, Tag: e.Tag})
	}
	return rec
}

// Encode serializes a record as zstd-compressed CBOR.
func Encode(rec Record) ([]byte, error) {
	raw, err := codec.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode archive: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Record, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return Record{}, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return Record{}, fmt.Errorf("decompress archive: %w", err)
	}
	var rec Record
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode archive: %w", err)
	}
	return rec, nil
}
