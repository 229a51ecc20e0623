package search

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// Engine filters the recents library by fuzzy name match, for the open
// dialog's quick filter.
type Engine struct {
	cfg     *config.Config
	storage types.Storage
}

func NewEngine(cfg *config.Config, storage types.Storage) *Engine {
	return &Engine{
		cfg:     cfg,
		storage: storage,
	}
}

type rankedTrack struct {
	track *types.Track
	rank  int
}

// Search returns recents whose display name fuzzily matches query, best
// match first. An empty query returns the recents in last-opened order.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]*types.Track, error) {
	if limit <= 0 {
		limit = e.cfg.Search.MaxResults
	}

	tracks, err := e.storage.GetTracks(ctx, e.cfg.Search.MaxResults)
	if err != nil {
		return nil, err
	}

	if query == "" {
		if len(tracks) > limit {
			tracks = tracks[:limit]
		}
		return tracks, nil
	}

	query = strings.ToLower(query)
	var ranked []rankedTrack
	for _, track := range tracks {
		name := displayName(track)
		rank := fuzzy.RankMatchNormalizedFold(query, name)
		if rank < 0 {
			continue
		}
		ranked = append(ranked, rankedTrack{track: track, rank: rank})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].rank < ranked[j].rank
	})

	results := make([]*types.Track, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, r.track)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func displayName(track *types.Track) string {
	if track.Name != "" {
		return track.Name
	}
	return filepath.Base(track.Source)
}
