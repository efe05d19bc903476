package segment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tanq16/segdl/internal/rawhttp"
	"github.com/tanq16/segdl/internal/storage"
	"github.com/tanq16/segdl/internal/utils"
	"golang.org/x/sync/errgroup"
)

type Downloader struct {
	Dialer   rawhttp.Dialer
	Observer Observer
	Options  utils.DownloadOptions
}

func NewDownloader(opts utils.DownloadOptions, obs Observer) *Downloader {
	if obs == nil {
		obs = nopObserver{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = utils.ToolUserAgent
	}
	return &Downloader{
		Dialer:   rawhttp.NewDialer(),
		Observer: obs,
		Options:  opts,
	}
}

// Download fetches rawURL with the given number of parallel range requests.
// Every failure is fatal to the job and comes back as a *utils.StageError.
func (d *Downloader) Download(ctx context.Context, rawURL string, workers int) (utils.Summary, error) {
	startTime := time.Now()
	summary := utils.Summary{JobID: uuid.NewString()}
	log := utils.GetLogger("downloader").With().Str("job", summary.JobID[:8]).Logger()
	if d.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Options.Timeout)
		defer cancel()
	}

	target, err := rawhttp.SplitURL(rawURL)
	if err != nil {
		return summary, utils.NewStageError(utils.StageParse, err)
	}
	if workers < 1 {
		return summary, utils.NewStageError(utils.StagePlan, fmt.Errorf("%w: worker count must be positive, got %d", utils.ErrInvalidPlan, workers))
	}

	meta, err := Probe(ctx, d.Dialer, target, d.Options.UserAgent, !d.Options.Lenient)
	if len(meta.Headers) > 0 {
		d.Observer.Headers(meta.Headers)
	}
	if err != nil {
		return summary, utils.NewStageError(utils.StageProbe, err)
	}
	summary.TotalSize = meta.TotalSize
	log.Info().Str("url", target.String()).Int64("size", meta.TotalSize).Msg("Probe complete")

	n := EffectiveWorkers(meta.TotalSize, workers)
	if n != workers {
		log.Warn().Int("requested", workers).Int("workers", n).Msg("More workers than bytes, capping worker count")
	}
	ranges, err := Plan(meta.TotalSize, n)
	if err != nil {
		return summary, utils.NewStageError(utils.StagePlan, err)
	}
	summary.Chunks = len(ranges)

	outputPath := d.Options.OutputPath
	if outputPath == "" {
		outputPath = utils.OutputNameFromPath(target.Path)
	}
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
		log.Debug().Str("output", outputPath).Msg("Output exists, using new name")
	}
	summary.OutputPath = outputPath

	store, err := d.openStore(outputPath)
	if err != nil {
		return summary, utils.NewStageError(utils.StageFetch, err)
	}
	defer store.Close()

	d.Observer.Planned(meta.TotalSize, ranges)
	fetcher := &Fetcher{
		Dialer:    d.Dialer,
		Store:     store,
		Target:    target,
		TotalSize: meta.TotalSize,
		UserAgent: d.Options.UserAgent,
		Strict:    !d.Options.Lenient,
		PartKey:   func(i int) string { return utils.PartKey(outputPath, i) },
		Observer:  d.Observer,
	}
	results := make([]utils.ChunkResult, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for _, rng := range ranges {
		g.Go(func() error {
			res, err := fetcher.Fetch(gctx, rng)
			if err != nil {
				return &utils.StageError{Stage: utils.StageFetch, Chunk: rng.Index, Err: err}
			}
			results[rng.Index] = res
			return nil
		})
	}
	log.Debug().Int("workers", len(ranges)).Msg("Waiting for range fetches")
	if err := g.Wait(); err != nil {
		if dir := store.Dir(); dir != "" {
			log.Debug().Str("dir", dir).Msg("Completed parts kept for inspection")
		}
		return summary, err
	}

	if _, err := Assemble(ctx, store, results, meta.TotalSize, outputPath); err != nil {
		return summary, utils.NewStageError(utils.StageAssemble, err)
	}
	if !d.Options.KeepParts {
		keys := make([]string, len(results))
		for i, res := range results {
			keys[i] = res.Key
		}
		if err := store.DeleteKeys(ctx, keys); err != nil {
			log.Warn().Err(err).Msg("Failed to remove temporary parts")
		}
	}
	summary.Elapsed = time.Since(startTime)
	log.Info().Str("output", outputPath).Dur("elapsed", summary.Elapsed).Msg("Download complete")
	return summary, nil
}

func (d *Downloader) openStore(outputPath string) (*storage.Store, error) {
	if d.Options.InMemory {
		return storage.OpenMemory(), nil
	}
	dir, err := filepath.Abs(utils.TempDirFor(outputPath, d.Options.TempDir))
	if err != nil {
		return nil, err
	}
	return storage.OpenDir(dir)
}
