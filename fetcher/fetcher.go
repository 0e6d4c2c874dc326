// Package fetcher runs the periodic feed loop: pull the realtime
// feed, enrich every vehicle in parallel, publish the results.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"

	"github.com/cK0nrad/tec-fetcher/enrich"
	"github.com/cK0nrad/tec-fetcher/model"
	"github.com/cK0nrad/tec-fetcher/store"
)

const (
	// tickInterval is the target cycle cadence.
	tickInterval = 5 * time.Second

	// slowCyclePause keeps a slow cycle from starving the loop
	// without busy-spinning it.
	slowCyclePause = 1 * time.Second
)

type Fetcher struct {
	log      *zap.Logger
	store    *store.Store
	enricher *enrich.Enricher
	url      string
	client   *http.Client

	// maxRetryTime bounds the in-cycle retry of the feed GET.
	maxRetryTime time.Duration
}

func New(log *zap.Logger, st *store.Store, url string) *Fetcher {
	return &Fetcher{
		log:          log,
		store:        st,
		enricher:     enrich.New(log.Named("utils")),
		url:          url,
		client:       &http.Client{Timeout: 30 * time.Second},
		maxRetryTime: 3 * time.Second,
	}
}

// Run loops until ctx is cancelled. Cycles shorter than the tick
// interval are padded up to it; longer ones get a short fixed pause.
func (f *Fetcher) Run(ctx context.Context) {
	for {
		start := time.Now()
		f.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(pause(time.Since(start))):
		}
	}
}

func pause(elapsed time.Duration) time.Duration {
	if elapsed < tickInterval {
		return tickInterval - elapsed
	}
	return slowCyclePause
}

func (f *Fetcher) cycle(ctx context.Context) {
	cyclesTotal.Inc()
	start := time.Now()
	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := f.fetch(ctx)
	if err != nil {
		fetchErrors.Inc()
		f.log.Error("fetching feed failed", zap.Error(err))
		return
	}

	message := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(body, message); err != nil {
		// Flaky upstreams produce garbage now and then. Skip
		// the cycle without noise.
		decodeErrors.Inc()
		return
	}

	batch := f.enrichAll(message.GetEntity())

	// One aging pass per cycle, after every observation landed.
	f.store.Speeds().AgeAndEvict()

	f.store.RefreshRaw(body)
	if err := f.store.Refresh(batch); err != nil {
		f.log.Error("publishing snapshot failed", zap.Error(err))
	}
	f.store.RefreshDB(ctx, batch)

	fleetSize.Set(float64(len(batch)))
}

// fetch GETs the feed with a short bounded retry inside the cycle.
// Whatever survives the retry window fails the whole cycle.
func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = f.maxRetryTime

	var body []byte
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("feed returned %s", resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, err
	}

	return body, nil
}

// enrichAll fans the entities out over a bounded worker pool. Vehicle
// ids are unique within a feed message, so no two workers touch the
// same speed tracker entry.
func (f *Fetcher) enrichAll(entities []*gtfsproto.FeedEntity) []model.Bus {
	ix := f.store.Schedule()
	tracker := f.store.Speeds()

	results := make([]*model.Bus, len(entities))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, entity := range entities {
		i, entity := i, entity
		g.Go(func() error {
			results[i] = f.enricher.Enrich(entity, ix, tracker)
			return nil
		})
	}
	_ = g.Wait()

	batch := make([]model.Bus, 0, len(entities))
	for _, bus := range results {
		if bus != nil {
			batch = append(batch, *bus)
		}
	}
	return batch
}
