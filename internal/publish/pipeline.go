// Package publish turns stored records into rendered files and pushes them to
// the remote host, deduplicating against the remote listing and respecting the
// host's write rate limits.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mouseadmin/internal/config"
	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/fields"
	"git.home.luguber.info/inful/mouseadmin/internal/logfields"
	"git.home.luguber.info/inful/mouseadmin/internal/metrics"
	"git.home.luguber.info/inful/mouseadmin/internal/neocities"
	"git.home.luguber.info/inful/mouseadmin/internal/remotecache"
	"git.home.luguber.info/inful/mouseadmin/internal/render"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
	"git.home.luguber.info/inful/mouseadmin/internal/store"
)

// Uploader is the remote write surface the pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, batch []neocities.UploadItem) error
	Delete(ctx context.Context, paths ...string) error
}

// Options tunes pipeline behavior. Zero values fall back to the configured
// defaults (batch size 25, cooldown 3s, minimum write interval 66s, real
// sleeps, wall clock, no metrics).
type Options struct {
	BatchSize        int
	BatchCooldown    time.Duration
	MinWriteInterval time.Duration
	Waiter           Waiter
	Clock            func() time.Time
	Recorder         metrics.Recorder
	Logger           *slog.Logger
}

// Pipeline renders and uploads schema content.
type Pipeline struct {
	store    *store.Store
	registry *fields.Registry
	renderer *render.Renderer
	uploader Uploader
	cache    *remotecache.Cache

	batchSize        int
	batchCooldown    time.Duration
	minWriteInterval time.Duration
	waiter           Waiter
	clock            func() time.Time
	recorder         metrics.Recorder
	logger           *slog.Logger
}

// New assembles a pipeline over its collaborators.
func New(st *store.Store, reg *fields.Registry, rend *render.Renderer, up Uploader, cache *remotecache.Cache, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = config.DefaultBatchSize
	}
	if opts.BatchCooldown <= 0 {
		opts.BatchCooldown = config.DefaultBatchCooldown
	}
	if opts.MinWriteInterval <= 0 {
		opts.MinWriteInterval = config.DefaultMinWriteInterval
	}
	if opts.Waiter == nil {
		opts.Waiter = NewSleepWaiter()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		store:            st,
		registry:         reg,
		renderer:         rend,
		uploader:         up,
		cache:            cache,
		batchSize:        opts.BatchSize,
		batchCooldown:    opts.BatchCooldown,
		minWriteInterval: opts.MinWriteInterval,
		waiter:           opts.Waiter,
		clock:            opts.Clock,
		recorder:         opts.Recorder,
		logger:           opts.Logger,
	}
}

// PublishSchema renders every record of the schema plus derived artifacts and
// the index page, and uploads whatever differs from the remote copy.
func (p *Pipeline) PublishSchema(ctx context.Context, schemaID int64) error {
	return p.publish(ctx, schemaID, 0)
}

// PublishRecord renders one record (entry body plus derived artifacts) and the
// regenerated index, and uploads whatever differs from the remote copy. The
// index always reflects all records, so it is reassembled from the full set.
func (p *Pipeline) PublishRecord(ctx context.Context, schemaID, recordID int64) error {
	return p.publish(ctx, schemaID, recordID)
}

// RenderAll builds the schema's complete remote file set without uploading
// anything. This is the dry-run surface.
func (p *Pipeline) RenderAll(ctx context.Context, schemaID int64) (map[string][]byte, error) {
	sc, logger, err := p.operation(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	return p.buildFileSet(ctx, logger, sc, 0)
}

// publish is the shared path; recordID 0 means all records.
func (p *Pipeline) publish(ctx context.Context, schemaID, recordID int64) error {
	start := p.clock()
	sc, logger, err := p.operation(ctx, schemaID)
	if err != nil {
		return err
	}

	files, err := p.buildFileSet(ctx, logger, sc, recordID)
	if err != nil {
		p.recorder.IncPublishOutcome(sc.Name, metrics.ResultFatal)
		return err
	}

	uploaded, err := p.uploadChanged(ctx, logger, sc, files)
	p.recorder.ObservePublishDuration(sc.Name, p.clock().Sub(start))
	if err != nil {
		p.recorder.IncPublishOutcome(sc.Name, metrics.ResultFatal)
		return err
	}
	if uploaded == 0 {
		p.recorder.IncPublishOutcome(sc.Name, metrics.ResultSkipped)
	} else {
		p.recorder.IncPublishOutcome(sc.Name, metrics.ResultSuccess)
	}
	return nil
}

// DeleteRecord removes the record locally and remotely, then republishes the
// regenerated index so the collection page stops referencing it.
func (p *Pipeline) DeleteRecord(ctx context.Context, schemaID, recordID int64) error {
	sc, logger, err := p.operation(ctx, schemaID)
	if err != nil {
		return err
	}

	rec, err := p.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	values, err := p.store.GetFieldValues(ctx, recordID)
	if err != nil {
		return err
	}
	vars, err := p.renderer.AssembleEntry(p.registry, sc, *rec, values)
	if err != nil {
		return err
	}
	remotePath, _ := vars[render.KeyRemotePath].(string)

	if err := p.store.DeleteRecord(ctx, recordID); err != nil {
		return err
	}
	logger.Info("record deleted", logfields.RecordID(recordID), logfields.RemotePath(remotePath))

	if err := p.uploader.Delete(ctx, remotePath); err != nil {
		return err
	}
	p.cache.InvalidateListing()

	files, err := p.buildFileSet(ctx, logger, sc, -1)
	if err != nil {
		return err
	}
	_, err = p.uploadChanged(ctx, logger, sc, files)
	return err
}

// operation loads the schema and tags the logger with a fresh operation ID.
func (p *Pipeline) operation(ctx context.Context, schemaID int64) (*schema.Schema, *slog.Logger, error) {
	sc, err := p.store.GetSchema(ctx, schemaID)
	if err != nil {
		return nil, nil, err
	}
	if err := p.registry.ValidateSchema(sc); err != nil {
		return nil, nil, err
	}
	logger := p.logger.With(
		logfields.Operation(uuid.NewString()),
		logfields.Schema(sc.Name))
	return sc, logger, nil
}

// buildFileSet assembles the remote file set for the operation: entry bodies,
// derived artifacts and the regenerated index. recordID selects one record's
// entry and artifacts (0 = all records, negative = index only); the index is
// always rebuilt from all records.
func (p *Pipeline) buildFileSet(ctx context.Context, logger *slog.Logger, sc *schema.Schema, recordID int64) (map[string][]byte, error) {
	recs, err := p.store.GetRecords(ctx, sc.ID)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)
	entryOwner := make(map[string]int64)
	var assembled []map[string]any

	for _, rec := range recs {
		values, err := p.store.GetFieldValues(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		vars, err := p.renderer.AssembleEntry(p.registry, sc, rec, values)
		if err != nil {
			return nil, err
		}
		assembled = append(assembled, vars)

		remotePath, _ := vars[render.KeyRemotePath].(string)
		if owner, dup := entryOwner[remotePath]; dup {
			logger.Error("two records render to the same remote path",
				logfields.RemotePath(remotePath),
				logfields.RecordID(owner),
				slog.Int64("other_record_id", rec.ID))
			return nil, errors.DuplicateEntryPath(remotePath)
		}
		entryOwner[remotePath] = rec.ID

		if recordID > 0 && rec.ID != recordID {
			continue
		}
		if recordID < 0 {
			continue
		}

		body, err := p.renderer.Entry(sc, vars)
		if err != nil {
			return nil, err
		}
		files[remotePath] = []byte(body)

		for _, def := range sc.Fields {
			ft, err := p.registry.Lookup(def.Kind)
			if err != nil {
				return nil, err
			}
			artifacts, err := ft.DeriveArtifacts(ctx, vars[def.Name])
			if err != nil {
				logger.Warn("derived artifact skipped",
					logfields.RecordID(rec.ID),
					logfields.Field(def.Name),
					logfields.Kind(def.Kind),
					logfields.Error(err))
				continue
			}
			for rel, content := range artifacts {
				files[remoteJoin(sc.BasePath, rel)] = content
			}
		}
	}

	if recordID > 0 && len(files) == 0 {
		return nil, errors.RecordNotFound(recordID)
	}

	index, err := p.renderer.Index(sc, assembled)
	if err != nil {
		return nil, err
	}
	files[render.IndexPath(sc)] = []byte(index)

	return files, nil
}

// uploadChanged uploads every file whose content differs from the remote
// listing, in deterministic sorted batches, honoring the cooldown between
// batches and the host's minimum interval between write operations. Returns
// the number of files uploaded.
func (p *Pipeline) uploadChanged(ctx context.Context, logger *slog.Logger, sc *schema.Schema, files map[string][]byte) (int, error) {
	listing, err := p.cache.Listing(ctx)
	if err != nil {
		return 0, err
	}
	remoteHash := make(map[string]string, len(listing))
	for _, fi := range listing {
		remoteHash[fi.Path] = fi.SHA1Hash
	}

	var changed []string
	skipped := 0
	for remotePath, content := range files {
		if remoteHash[remotePath] == remotecache.HashContent(content) {
			skipped++
			continue
		}
		changed = append(changed, remotePath)
	}
	sort.Strings(changed)
	p.recorder.IncSkippedFiles(skipped)

	if len(changed) == 0 {
		logger.Info("nothing to upload", logfields.FileCount(len(files)))
		return 0, nil
	}
	logger.Info("uploading changed files",
		logfields.FileCount(len(changed)),
		slog.Int("unchanged", skipped))

	if err := p.waitWriteWindow(ctx, logger, sc, listing); err != nil {
		return 0, err
	}

	uploaded := 0
	for batchNo := 0; len(changed) > 0; batchNo++ {
		if batchNo > 0 {
			p.recorder.ObserveThrottleWait(p.batchCooldown)
			if err := p.waiter.Wait(ctx, p.batchCooldown); err != nil {
				return uploaded, err
			}
		}
		n := p.batchSize
		if n > len(changed) {
			n = len(changed)
		}
		batch := changed[:n]
		changed = changed[n:]

		start := p.clock()
		if err := p.uploadBatch(ctx, batch, files); err != nil {
			return uploaded, errors.UploadFailed(batchNo+1, err)
		}
		elapsed := p.clock().Sub(start)
		p.recorder.ObserveBatchDuration(elapsed)
		p.recorder.IncUploadedFiles(len(batch))
		uploaded += len(batch)
		logger.Info("batch uploaded",
			logfields.Batch(batchNo+1),
			logfields.FileCount(len(batch)),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
	}

	for _, remotePath := range sortedKeys(files) {
		if err := p.cache.Store(remotePath, files[remotePath]); err != nil {
			logger.Warn("mirror refresh failed",
				logfields.RemotePath(remotePath),
				logfields.Error(err))
		}
	}
	p.cache.InvalidateListing()
	return uploaded, nil
}

// waitWriteWindow sleeps until the host's minimum interval since the most
// recent remote write under the schema's base path has elapsed.
func (p *Pipeline) waitWriteWindow(ctx context.Context, logger *slog.Logger, sc *schema.Schema, listing []neocities.FileInfo) error {
	prefix := strings.Trim(sc.BasePath, "/") + "/"
	var latest time.Time
	for _, fi := range listing {
		if fi.IsDirectory || !strings.HasPrefix(fi.Path, prefix) {
			continue
		}
		if fi.UpdatedAt.After(latest) {
			latest = fi.UpdatedAt
		}
	}
	if latest.IsZero() {
		return nil
	}
	wait := p.minWriteInterval - p.clock().Sub(latest)
	if wait <= 0 {
		return nil
	}
	logger.Info("waiting for write window", slog.Duration("wait", wait))
	p.recorder.ObserveThrottleWait(wait)
	return p.waiter.Wait(ctx, wait)
}

// uploadBatch stages contents to temp files and sends one upload request.
func (p *Pipeline) uploadBatch(ctx context.Context, batch []string, files map[string][]byte) error {
	staging, err := os.MkdirTemp("", "mouseadmin-upload-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	items := make([]neocities.UploadItem, 0, len(batch))
	for i, remotePath := range batch {
		local := filepath.Join(staging, fmt.Sprintf("stage-%03d", i))
		if err := os.WriteFile(local, files[remotePath], 0o600); err != nil {
			return err
		}
		items = append(items, neocities.UploadItem{LocalPath: local, RemotePath: remotePath})
	}
	return p.uploader.Upload(ctx, items)
}

func remoteJoin(base, rel string) string {
	joined := path.Join(strings.Trim(base, "/"), strings.Trim(rel, "/"))
	return strings.TrimPrefix(joined, "/")
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
