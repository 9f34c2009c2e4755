// Package overview computes corpus-wide statistics over the consultant
// store: total consultant count, distinct skill count and the top skills
// ranking.
package overview

import (
	"context"
	"fmt"
	"sort"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var overviewTracer = otel.Tracer("consultant-match-go/overview")

// ConsultantScanner is the slice of the vector store the aggregator needs.
type ConsultantScanner interface {
	ListConsultants(ctx context.Context, limit int) ([]types.ConsultantProfile, error)
	CountConsultants(ctx context.Context) (int64, error)
}

// Aggregator produces overview snapshots. Snapshots are recomputed on
// every call; nothing is cached.
type Aggregator struct {
	store ConsultantScanner
	cfg   config.MatchingConfig
}

// NewAggregator wires the aggregator to its store.
func NewAggregator(store ConsultantScanner, cfg config.MatchingConfig) *Aggregator {
	return &Aggregator{
		store: store,
		cfg:   cfg,
	}
}

// Snapshot scans the corpus and aggregates skill statistics. Each
// consultant contributes each skill at most once (exact-string,
// case-sensitive dedup); distinct skill variants count separately. Store
// failures surface as errors, never as a zeroed snapshot.
func (a *Aggregator) Snapshot(ctx context.Context) (*types.OverviewSnapshot, error) {
	ctx, span := overviewTracer.Start(ctx, "Overview.Snapshot")
	defer span.End()

	count, err := a.store.CountConsultants(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("count consultants: %w", err)
	}

	scanLimit := a.cfg.OverviewScanLimit
	if scanLimit <= 0 {
		scanLimit = 500
	}

	profiles, err := a.store.ListConsultants(ctx, scanLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("scan consultants: %w", err)
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for _, profile := range profiles {
		seen := make(map[string]bool, len(profile.Skills))
		for _, skill := range profile.Skills {
			if skill == "" || seen[skill] {
				continue
			}
			seen[skill] = true
			if _, ok := firstSeen[skill]; !ok {
				firstSeen[skill] = len(firstSeen)
			}
			counts[skill]++
		}
	}

	topN := a.cfg.TopSkills
	if topN <= 0 {
		topN = 10
	}

	snapshot := &types.OverviewSnapshot{
		CVCount:           int(count),
		UniqueSkillsCount: len(counts),
		TopSkills:         topSkills(counts, firstSeen, topN),
	}

	span.SetAttributes(
		attribute.Int("overview.cv_count", snapshot.CVCount),
		attribute.Int("overview.unique_skills", snapshot.UniqueSkillsCount),
		attribute.Int("overview.scanned", len(profiles)),
	)
	span.SetStatus(codes.Ok, "")
	return snapshot, nil
}

// topSkills ranks skills by descending count, ties broken by
// first-encountered order. The cut is ties-inclusive: every skill tied
// with the Nth rank stays in.
func topSkills(counts map[string]int, firstSeen map[string]int, topN int) []types.SkillCount {
	ranked := make([]types.SkillCount, 0, len(counts))
	for skill, count := range counts {
		ranked = append(ranked, types.SkillCount{Skill: skill, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Skill] < firstSeen[ranked[j].Skill]
	})

	if len(ranked) <= topN {
		return ranked
	}

	cut := topN
	threshold := ranked[topN-1].Count
	for cut < len(ranked) && ranked[cut].Count == threshold {
		cut++
	}
	return ranked[:cut]
}
