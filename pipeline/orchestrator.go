// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline drives the streaming ingestion run: discover the entity
// universe, plan the work set against what the graph already knows, then
// collect, merge, and upsert one entity at a time. Runs are resumable — a
// crashed run leaves the work set partially consumed and the next run skips
// everything already written.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stockelper/stockgraph/data"
)

// failedPreviewLen bounds how many failed codes appear in log output. The
// full list is always returned in RunStats.
const failedPreviewLen = 10

// DefaultBatchSize partitions the work set when none is configured.
const DefaultBatchSize = 100

// ExchangeCollector supplies the authoritative entity universe.
type ExchangeCollector interface {
	Collect(ctx context.Context) ([]data.Company, error)
}

// MarketCollector supplies sector profiles and dated quotes; results are
// always complete, with defaults substituted for unavailable items.
type MarketCollector interface {
	Collect(ctx context.Context, codes []string, dts []string) ([]data.Profile, []data.Quote)
}

// FinstateCollector supplies one financial snapshot per security, falling
// back through prior quarters and returning placeholders when none has data.
type FinstateCollector interface {
	Collect(ctx context.Context, codes []string, date string) []data.FinancialSnapshot
}

// CompetitorCollector supplies competitor links; best-effort, an unreachable
// store yields an empty map.
type CompetitorCollector interface {
	Collect(ctx context.Context) map[string][]string
}

// GraphStore is the upsert and progress surface of the destination graph.
type GraphStore interface {
	UpsertStock(ctx context.Context, frag *data.StockFragment) error
	StockExists(ctx context.Context, code string) (bool, error)
	KnownCodes(ctx context.Context) (map[string]struct{}, error)
	KnownDates(ctx context.Context, code string) (map[string]struct{}, error)
}

// Params collects the orchestrator's collaborators and run settings.
type Params struct {
	Exchange     ExchangeCollector
	Market       MarketCollector
	Finstate     FinstateCollector
	Competitors  CompetitorCollector
	Store        GraphStore
	Dates        []string
	BatchSize    int
	SkipExisting bool
}

// Orchestrator processes entities strictly sequentially: the external APIs
// are the bottleneck and rate-limited per credential, so parallel workers
// would only trigger throttling.
type Orchestrator struct {
	exchange    ExchangeCollector
	market      MarketCollector
	finstate    FinstateCollector
	competitors CompetitorCollector
	store       GraphStore

	dates        []string
	batchSize    int
	skipExisting bool

	runID     string
	processed map[string]struct{}
	failed    map[string]struct{}
	logger    zerolog.Logger
}

func New(params Params) *Orchestrator {
	if params.BatchSize <= 0 {
		params.BatchSize = DefaultBatchSize
	}

	runID := uuid.New()

	return &Orchestrator{
		exchange:     params.Exchange,
		market:       params.Market,
		finstate:     params.Finstate,
		competitors:  params.Competitors,
		store:        params.Store,
		dates:        params.Dates,
		batchSize:    params.BatchSize,
		skipExisting: params.SkipExisting,
		runID:        runID.String(),
		processed:    make(map[string]struct{}),
		failed:       make(map[string]struct{}),
		logger:       log.With().Str("RunID", runID.String()).Logger(),
	}
}

// Universe is the static data fetched once per run: the full listing plus
// competitor links, left-joined so every company has a (possibly empty)
// competitor list.
type Universe struct {
	Companies   []data.Company
	Competitors map[string][]string

	byCode map[string]data.Company
}

// Company looks up a listing record by code.
func (u *Universe) Company(code string) (data.Company, bool) {
	company, ok := u.byCode[code]
	return company, ok
}

// Discover fetches the entity universe. This static data changes rarely and
// is fetched eagerly once per run rather than per entity. The listing order
// fixes processing order for the whole run.
func (o *Orchestrator) Discover(ctx context.Context) (*Universe, error) {
	defer timeOperation(o.logger, "discover")()

	companies, err := o.exchange.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("entity discovery failed: %w", err)
	}

	links := o.competitors.Collect(ctx)

	universe := &Universe{
		Companies:   companies,
		Competitors: make(map[string][]string, len(companies)),
		byCode:      make(map[string]data.Company, len(companies)),
	}

	for _, company := range companies {
		universe.byCode[company.Code] = company
		if competitors, ok := links[company.Code]; ok {
			universe.Competitors[company.Code] = competitors
		} else {
			universe.Competitors[company.Code] = []string{}
		}
	}

	return universe, nil
}

// PlanWork computes the work set in discovery order. With skip-existing
// enabled, entities the graph already knows are excluded; force-all mode
// (skip-existing off) returns the full universe.
func (o *Orchestrator) PlanWork(universe *Universe, known map[string]struct{}) []data.Company {
	if !o.skipExisting {
		return universe.Companies
	}

	work := make([]data.Company, 0, len(universe.Companies))
	for _, company := range universe.Companies {
		if _, ok := known[company.Code]; ok {
			continue
		}
		work = append(work, company)
	}

	return work
}

// processOne collects, merges, and upserts a single entity. Any error is
// returned to the per-entity boundary in processBatch; it never aborts the
// batch.
func (o *Orchestrator) processOne(ctx context.Context, company data.Company, competitors []string) error {
	codes := []string{company.Code}

	profiles, quotes := o.market.Collect(ctx, codes, o.dates)

	var profile *data.Profile
	if len(profiles) > 0 {
		profile = &profiles[0]
	}

	var finstate *data.FinancialSnapshot
	if len(o.dates) > 0 {
		snapshots := o.finstate.Collect(ctx, codes, o.dates[0])
		if len(snapshots) > 0 {
			finstate = &snapshots[0]
		}
	}

	frag := Merge(company, profile, quotes, finstate, competitors)
	return o.store.UpsertStock(ctx, frag)
}

// processBatch handles one batch of entities, one at a time. Each entity is
// re-verified against the store first, defending against concurrent runs and
// partially-committed prior attempts.
func (o *Orchestrator) processBatch(ctx context.Context, batch []data.Company, universe *Universe, stats *data.RunStats) {
	for _, company := range batch {
		code := company.Code

		if o.skipExisting {
			exists, err := o.store.StockExists(ctx, code)
			if err != nil {
				o.logger.Error().Err(err).Str("Code", code).Msg("existence check failed")
				o.failed[code] = struct{}{}
				continue
			}
			if exists {
				o.logger.Debug().Str("Code", code).Msg("already exists, skipping")
				stats.Skipped++
				continue
			}
		}

		if err := o.processOne(ctx, company, universe.Competitors[code]); err != nil {
			o.logger.Error().Err(err).Str("Code", code).Msg("error processing entity")
			o.failed[code] = struct{}{}
			continue
		}

		o.processed[code] = struct{}{}
		o.logger.Info().Str("Code", code).Int("Processed", len(o.processed)).Msg("entity processed")
	}
}

// RunStreaming executes a full streaming collection with resume capability
// and returns aggregate statistics.
func (o *Orchestrator) RunStreaming(ctx context.Context) (*data.RunStats, error) {
	defer timeOperation(o.logger, "run_streaming")()

	stats := o.newStats()
	defer o.finalize(stats)

	universe, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}
	stats.Total = len(universe.Companies)

	known := make(map[string]struct{})
	if o.skipExisting {
		if known, err = o.store.KnownCodes(ctx); err != nil {
			return nil, fmt.Errorf("could not query known entities: %w", err)
		}
		o.logger.Info().Int("NumKnown", len(known)).Msg("found entities already in graph")
	}

	work := o.PlanWork(universe, known)
	stats.Skipped = stats.Total - len(work)

	if len(work) == 0 {
		o.logger.Info().Msg("no entities to process, everything is up to date")
		return stats, nil
	}

	totalBatches := (len(work) + o.batchSize - 1) / o.batchSize
	for start := 0; start < len(work); start += o.batchSize {
		end := start + o.batchSize
		if end > len(work) {
			end = len(work)
		}

		batchNum := start/o.batchSize + 1
		o.logger.Info().Int("Batch", batchNum).Int("TotalBatches", totalBatches).Int("BatchLen", end-start).Msg("processing batch")
		o.processBatch(ctx, work[start:end], universe, stats)
	}

	return stats, nil
}

// UpdateExisting restricts collection to dates the graph does not yet have
// for already-known entities. With a nil code list, every known entity is
// considered.
func (o *Orchestrator) UpdateExisting(ctx context.Context, codes []string) (*data.RunStats, error) {
	defer timeOperation(o.logger, "update_existing")()

	stats := o.newStats()
	defer o.finalize(stats)

	if codes == nil {
		known, err := o.store.KnownCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not query known entities: %w", err)
		}

		codes = make([]string, 0, len(known))
		for code := range known {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		o.logger.Info().Int("NumKnown", len(codes)).Msg("updating known entities")
	}
	stats.Total = len(codes)

	universe, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}

	for _, code := range codes {
		company, ok := universe.Company(code)
		if !ok {
			o.logger.Warn().Str("Code", code).Msg("entity missing from listing, skipping update")
			o.failed[code] = struct{}{}
			continue
		}

		knownDates, err := o.store.KnownDates(ctx, code)
		if err != nil {
			o.logger.Error().Err(err).Str("Code", code).Msg("could not query known dates")
			o.failed[code] = struct{}{}
			continue
		}

		newDates := make([]string, 0, len(o.dates))
		for _, date := range o.dates {
			if _, ok := knownDates[date]; !ok {
				newDates = append(newDates, date)
			}
		}

		if len(newDates) == 0 {
			o.logger.Debug().Str("Code", code).Msg("all dates already recorded")
			stats.Skipped++
			continue
		}

		_, quotes := o.market.Collect(ctx, []string{code}, newDates)

		// Quotes-only: the entity already exists and its profile was not
		// re-collected, so the upsert must not rewrite company attributes.
		frag := Merge(company, nil, quotes, nil, nil)
		frag.QuotesOnly = true

		if err := o.store.UpsertStock(ctx, frag); err != nil {
			o.logger.Error().Err(err).Str("Code", code).Msg("error updating entity")
			o.failed[code] = struct{}{}
			continue
		}

		stats.Updated++
		o.logger.Info().Str("Code", code).Int("NumDates", len(newDates)).Msg("entity updated")
	}

	return stats, nil
}

// RunLegacy is the non-streaming batch mode: every source is collected for
// the whole universe up front, then entities are merged and upserted one at
// a time. No resume support; kept for small date ranges and backfills.
func (o *Orchestrator) RunLegacy(ctx context.Context) (*data.RunStats, error) {
	defer timeOperation(o.logger, "run_legacy")()

	stats := o.newStats()
	defer o.finalize(stats)

	universe, err := o.Discover(ctx)
	if err != nil {
		return nil, err
	}
	stats.Total = len(universe.Companies)

	codes := make([]string, 0, len(universe.Companies))
	for _, company := range universe.Companies {
		codes = append(codes, company.Code)
	}

	profiles, quotes := o.market.Collect(ctx, codes, o.dates)

	profilesByCode := make(map[string]data.Profile, len(profiles))
	for _, profile := range profiles {
		profilesByCode[profile.Code] = profile
	}

	quotesByCode := make(map[string][]data.Quote, len(codes))
	for _, quote := range quotes {
		quotesByCode[quote.Code] = append(quotesByCode[quote.Code], quote)
	}

	finstatesByCode := make(map[string]data.FinancialSnapshot, len(codes))
	if len(o.dates) > 0 {
		for _, snapshot := range o.finstate.Collect(ctx, codes, o.dates[0]) {
			finstatesByCode[snapshot.Code] = snapshot
		}
	}

	for _, company := range universe.Companies {
		code := company.Code

		var profile *data.Profile
		if p, ok := profilesByCode[code]; ok {
			profile = &p
		}

		var finstate *data.FinancialSnapshot
		if fs, ok := finstatesByCode[code]; ok {
			finstate = &fs
		}

		frag := Merge(company, profile, quotesByCode[code], finstate, universe.Competitors[code])
		if err := o.store.UpsertStock(ctx, frag); err != nil {
			o.logger.Error().Err(err).Str("Code", code).Msg("error upserting entity")
			o.failed[code] = struct{}{}
			continue
		}
		o.processed[code] = struct{}{}
	}

	return stats, nil
}

func (o *Orchestrator) newStats() *data.RunStats {
	return &data.RunStats{
		RunID:     o.runID,
		StartTime: time.Now(),
	}
}

func (o *Orchestrator) finalize(stats *data.RunStats) {
	stats.EndTime = time.Now()
	stats.Processed = len(o.processed)
	stats.Failed = len(o.failed)

	stats.FailedCodes = make([]string, 0, len(o.failed))
	for code := range o.failed {
		stats.FailedCodes = append(stats.FailedCodes, code)
	}
	sort.Strings(stats.FailedCodes)

	o.logger.Info().
		Int("Total", stats.Total).
		Int("Processed", stats.Processed).
		Int("Skipped", stats.Skipped).
		Int("Updated", stats.Updated).
		Int("Failed", stats.Failed).
		Msg("run complete")

	if stats.Failed > 0 {
		o.logger.Warn().Strs("FailedPreview", stats.FailedPreview(failedPreviewLen)).Msg("some entities failed")
	}
}
