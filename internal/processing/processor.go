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

// Package processing moves a science file through one calibration stage:
// fetch, calibrate, file the products, and record lineage for each.
package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/alert"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/calibration"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/instrument"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/science"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/serverenv"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/storage"
	"github.com/swxsoc/sdc-aws-processing-lambda/pkg/logging"
)

var (
	// ErrConfiguration is returned when a file cannot be routed with the
	// current instrument configuration. It is never worth retrying.
	ErrConfiguration = errors.New("configuration error")

	// ErrObjectNotFound is returned when the object named by an event does
	// not exist.
	ErrObjectNotFound = errors.New("object not found")
)

// Processor runs the processing pipeline for individual files.
type Processor struct {
	config      *Config
	instruments *instrument.Config
	parser      *science.Parser
	calibrators *calibration.Registry
	blobstore   storage.Blobstore
	tracker     lineage.Tracker
	alerter     alert.Alerter
	now         func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the clock used to date destination keys.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// NewProcessor creates a Processor from the server environment. The tracker
// and alerter are optional.
func NewProcessor(config *Config, env *serverenv.ServerEnv, opts ...Option) (*Processor, error) {
	if env.Instruments() == nil {
		return nil, fmt.Errorf("processing.NewProcessor requires Instruments present in the ServerEnv")
	}
	if env.Calibrators() == nil {
		return nil, fmt.Errorf("processing.NewProcessor requires Calibrators present in the ServerEnv")
	}
	if env.Blobstore() == nil {
		return nil, fmt.Errorf("processing.NewProcessor requires Blobstore present in the ServerEnv")
	}
	if config.UseFixtureData && config.FixtureDataPath == "" {
		return nil, fmt.Errorf("USE_FIXTURE_DATA requires FIXTURE_DATA_PATH")
	}

	tracker := env.Tracker()
	if tracker == nil {
		tracker = lineage.NewNoop()
	}
	alerter := env.Alerter()
	if alerter == nil {
		alerter = alert.NewNoop()
	}

	p := &Processor{
		config:      config,
		instruments: env.Instruments(),
		parser:      env.Instruments().Parser(),
		calibrators: env.Calibrators(),
		blobstore:   env.Blobstore(),
		tracker:     tracker,
		alerter:     alerter,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Report describes what processing a file did, or in a dry run, would do.
type Report struct {
	Bucket            string
	Key               string
	Parsed            *science.ParsedFilename
	Instrument        string
	DestinationBucket string
	Status            model.StatusCode
	Reason            string
	Products          []*Product
}

// Product is one calibrated output.
type Product struct {
	LocalPath string
	Parsed    *science.ParsedFilename
	Key       string
	Pushed    bool
}

// Process runs the pipeline for bucket/key.
func (p *Processor) Process(ctx context.Context, bucket, key string) error {
	_, err := p.ProcessFile(ctx, bucket, key)
	return err
}

// ProcessFile runs the pipeline for bucket/key and reports the outcome.
// A file that calibrates to nothing, or that needs more data, is recorded
// as FAILED and is not an error.
func (p *Processor) ProcessFile(ctx context.Context, bucket, key string) (*Report, error) {
	logger := logging.FromContext(ctx).Named("processing").With("bucket", bucket, "key", key)
	ctx = logging.WithLogger(ctx, logger)

	report := &Report{
		Bucket: bucket,
		Key:    key,
	}

	// Everything that can be decided from configuration alone is checked
	// before any I/O.
	parsed, err := p.parser.Parse(key)
	if err != nil {
		recordOutcome(ctx, "", outcomeInvalid)
		return report, fmt.Errorf("parsing key: %w", err)
	}
	report.Parsed = parsed

	inst, err := p.instruments.Lookup(parsed.Instrument)
	if err != nil {
		recordOutcome(ctx, parsed.Instrument, outcomeInvalid)
		return report, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	report.Instrument = inst.Name
	report.DestinationBucket = inst.Bucket

	calibrator, err := p.calibrators.Lookup(inst.Name)
	if err != nil {
		recordOutcome(ctx, inst.Name, outcomeInvalid)
		return report, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	logger.Infow("processing file",
		"instrument", inst.Name,
		"level", parsed.Level.String(),
		"destination", inst.Bucket,
		"dry_run", p.config.DryRun)

	scratch, err := os.MkdirTemp(p.config.ScratchDir, "sdc-")
	if err != nil {
		return report, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warnw("failed to remove scratch directory", "path", scratch, "error", err)
		}
	}()

	localPath, err := p.fetch(ctx, bucket, key, scratch)
	if err != nil {
		recordOutcome(ctx, inst.Name, outcomeError)
		return report, err
	}

	start := time.Now()
	result, err := calibration.Invoke(ctx, calibrator, localPath)
	elapsed := time.Since(start)
	recordCalibration(ctx, inst.Name, elapsed)
	if err != nil {
		logger.Errorw("calibration failed", "error", err)
		p.alert(ctx, inst, bucket, key, fmt.Sprintf("Calibration failed: %v", err))
		recordOutcome(ctx, inst.Name, outcomeError)
		return report, fmt.Errorf("calibrating %s: %w", science.Filename(key), err)
	}

	switch {
	case result.Outcome == calibration.OutcomeNeedsMoreData:
		reason := fmt.Sprintf("Calibration needs more data: %s", result.Reason)
		logger.Warnw("calibration needs more data", "reason", result.Reason)
		p.fail(ctx, inst, report, localPath, reason)
		recordOutcome(ctx, inst.Name, outcomeNeedsData)
		return report, nil

	case len(result.Outputs) == 0:
		reason := "Calibration produced no files"
		logger.Warnw("calibration produced no files")
		p.fail(ctx, inst, report, localPath, reason)
		recordOutcome(ctx, inst.Name, outcomeNoOutput)
		return report, nil
	}

	report.Status = model.StatusSuccess
	status := model.NewStatus(model.StatusSuccess,
		fmt.Sprintf("Calibrated into %d file(s)", len(result.Outputs)),
		model.WithProcessingTime(elapsed))

	originID, err := p.track(ctx, localPath, key, bucket, nil, status)
	if err != nil {
		logger.Errorw("failed to record original file, products will not be linked", "error", err)
	}

	var merr *multierror.Error
	for _, out := range result.Outputs {
		product, err := p.file(ctx, inst, out, originID)
		if product != nil {
			report.Products = append(report.Products, product)
		}
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		recordOutcome(ctx, inst.Name, outcomeError)
		return report, err
	}

	logger.Infow("processed file", "products", len(report.Products))
	recordOutcome(ctx, inst.Name, outcomeOK)
	return report, nil
}

// fetch places the input in scratch and returns its path.
func (p *Processor) fetch(ctx context.Context, bucket, key, scratch string) (string, error) {
	logger := logging.FromContext(ctx)
	localPath := filepath.Join(scratch, science.Filename(key))

	if fixture := p.config.LocalFixturePath(); fixture != "" {
		logger.Infow("using fixture data", "fixture", fixture)
		if err := copyFile(fixture, localPath); err != nil {
			return "", fmt.Errorf("copying fixture: %w", err)
		}
		return localPath, nil
	}

	if p.config.DryRun {
		logger.Infow("dry run, not downloading", "path", localPath)
		if err := os.WriteFile(localPath, nil, 0o600); err != nil {
			return "", fmt.Errorf("creating placeholder: %w", err)
		}
		return localPath, nil
	}

	ctx, cancel := p.storageContext(ctx)
	defer cancel()

	if err := p.blobstore.DownloadObject(ctx, bucket, key, localPath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, key)
		}
		return "", fmt.Errorf("downloading s3://%s/%s: %w", bucket, key, err)
	}
	return localPath, nil
}

// file pushes one calibrated output to its destination and records it as
// pending the next stage.
func (p *Processor) file(ctx context.Context, inst *instrument.Instrument, localPath string, originID *int64) (*Product, error) {
	logger := logging.FromContext(ctx)

	filename := filepath.Base(localPath)
	parsed, err := p.parser.Parse(filename)
	if err != nil {
		return nil, fmt.Errorf("calibration output %s: %w", filename, err)
	}

	product := &Product{
		LocalPath: localPath,
		Parsed:    parsed,
		Key:       science.DestinationKey(parsed, filename, p.now()),
	}

	opts := []model.StatusOption{}
	if originID != nil {
		opts = append(opts, model.WithOrigins(*originID))
	}
	status := model.NewStatus(model.StatusPending,
		fmt.Sprintf("Produced %s, awaiting further processing", parsed.Level), opts...)

	if p.config.DryRun {
		logger.Infow("dry run, not uploading", "destination", inst.Bucket, "product", product.Key)
	} else {
		if err := p.push(ctx, inst.Bucket, product.Key, localPath); err != nil {
			return product, err
		}
		product.Pushed = true
		logger.Infow("filed product", "destination", inst.Bucket, "product", product.Key)
	}

	if originID == nil && !p.config.DryRun {
		logger.Warnw("original file was not recorded, skipping lineage for product", "product", product.Key)
		return product, nil
	}
	if _, err := p.track(ctx, localPath, product.Key, inst.Bucket, originID, status); err != nil {
		logger.Errorw("failed to record product", "product", product.Key, "error", err)
	}
	return product, nil
}

func (p *Processor) push(ctx context.Context, bucket, key, localPath string) error {
	ctx, cancel := p.storageContext(ctx)
	defer cancel()

	if err := p.blobstore.UploadObject(ctx, bucket, key, localPath); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// fail records the original file as FAILED and raises an alert.
func (p *Processor) fail(ctx context.Context, inst *instrument.Instrument, report *Report, localPath, reason string) {
	report.Status = model.StatusFailed
	report.Reason = reason

	status := model.NewStatus(model.StatusFailed, reason)
	if _, err := p.track(ctx, localPath, report.Key, report.Bucket, nil, status); err != nil {
		logging.FromContext(ctx).Errorw("failed to record failure", "error", err)
	}
	p.alert(ctx, inst, report.Bucket, report.Key, reason)
}

// track writes lineage and returns the file id. Nothing is written in a dry
// run.
func (p *Processor) track(ctx context.Context, localPath, key, bucket string, originID *int64, status *model.Status) (*int64, error) {
	if p.config.DryRun {
		logging.FromContext(ctx).Debugw("dry run, not recording lineage", "key", key, "status", status.Code())
		return nil, nil
	}

	fileID, _, err := p.tracker.Track(ctx, localPath, key, bucket, originID, status)
	if err != nil {
		return nil, err
	}
	return &fileID, nil
}

func (p *Processor) alert(ctx context.Context, inst *instrument.Instrument, bucket, key, message string) {
	if p.config.DryRun {
		return
	}

	a := &alert.Alert{
		Subject:    fmt.Sprintf("%s processing failed: %s", inst.TargetName, science.Filename(key)),
		Message:    fmt.Sprintf("%s\ndestination bucket: %s", message, inst.Bucket),
		Instrument: inst.Name,
		Bucket:     bucket,
		Key:        key,
	}
	if err := p.alerter.Alert(ctx, a); err != nil {
		logging.FromContext(ctx).Warnw("failed to send alert", "error", err)
	}
}

func (p *Processor) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.config.StorageTimeout)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
