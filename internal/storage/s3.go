// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage archives snapshot documents to S3-compatible object
// storage. It wraps the AWS SDK v2 and is configured for path-style access
// (required by CEPH/Hetzner and MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"pagecraft/internal/models"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Options configures the archive client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every object key, e.g. "snapshots".
	Prefix string
}

// Archive stores snapshot documents in a single bucket.
type Archive struct {
	s3     *s3.Client
	bucket string
	prefix string
}

// New creates an archive client with path-style addressing. Returns
// (nil, nil) if endpoint, credentials, or bucket are empty, allowing the
// app to start without storage.
func New(opts Options) (*Archive, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, nil
	}
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(opts.Endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
		// S3-compatible stores reject the SDK's default trailing checksums.
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})

	return &Archive{
		s3:     s3Client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// SnapshotKey returns the object key for a snapshot. Keys are content
// addressed, so archiving the same document twice writes the same object.
func (a *Archive) SnapshotKey(sn *models.Snapshot) string {
	key := sn.TemplateID.String() + "/" + sn.Hash + ".json"
	if a.prefix == "" {
		return key
	}
	return a.prefix + "/" + key
}

// PutSnapshot uploads the snapshot's document.
func (a *Archive) PutSnapshot(ctx context.Context, sn *models.Snapshot) error {
	key := a.SnapshotKey(sn)
	_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sn.FullData),
		ContentLength: aws.Int64(int64(len(sn.FullData))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": sn.ID.String(),
			"rev":         fmt.Sprint(sn.Rev),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", a.bucket, key, err)
	}
	return nil
}
