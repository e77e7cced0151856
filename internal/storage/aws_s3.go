// Copyright 2023 the SDC AWS Processing Lambda authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Compile-time check to verify implements interface.
var _ Blobstore = (*AWSS3)(nil)

// AWSS3 implements the Blobstore interface against Amazon S3.
type AWSS3 struct {
	svc        *s3.S3
	downloader *s3manager.Downloader
	uploader   *s3manager.Uploader
}

// NewAWSS3 creates an S3 client from the ambient AWS credentials.
func NewAWSS3(_ context.Context) (Blobstore, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	svc := s3.New(sess)
	return &AWSS3{
		svc:        svc,
		downloader: s3manager.NewDownloaderWithClient(svc),
		uploader:   s3manager.NewUploaderWithClient(svc),
	}, nil
}

// ObjectExists issues a HEAD request for the object.
func (s *AWSS3) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := s.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage.ObjectExists: %w", err)
	}
	return true, nil
}

// DownloadObject downloads the object to path.
func (s *AWSS3) DownloadObject(ctx context.Context, bucket, key, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}

	if _, err := s.downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		f.Close()
		os.Remove(path)
		if isS3NotFound(err) {
			return fmt.Errorf("storage.DownloadObject: s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("storage.DownloadObject: %w", err)
	}
	return nil
}

// UploadObject uploads the file at path, overwriting any existing object.
func (s *AWSS3) UploadObject(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("storage.UploadObject: %w", err)
	}
	defer f.Close()

	if _, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("storage.UploadObject: %w", err)
	}
	return nil
}

// CopyObject performs a server-side copy.
func (s *AWSS3) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	source := (&url.URL{Path: srcBucket + "/" + srcKey}).EscapedPath()

	if _, err := s.svc.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	}); err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("storage.CopyObject: s3://%s/%s: %w", srcBucket, srcKey, ErrNotFound)
		}
		return fmt.Errorf("storage.CopyObject: %w", err)
	}
	return nil
}

// DeleteObject deletes an S3 object, returns nil if the object was
// successfully deleted, or if the object doesn't exist.
func (s *AWSS3) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("storage.DeleteObject: %w", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
