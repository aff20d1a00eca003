package library

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/cockroachdb/errors"

	"github.com/osa030/musicbox/internal/domain/catalog"
	"github.com/osa030/musicbox/internal/domain/track"
)

// SearchLimit is the number of hits returned per entity kind.
const SearchLimit = 5

// Search finds songs, albums and artists whose title or name contains term,
// case-insensitively. Hits are ranked by edit distance to the term.
// An empty term returns empty results without querying the store.
func (s *Service) Search(ctx context.Context, term string) (catalog.SearchResults, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return catalog.SearchResults{}, nil
	}

	songs, err := s.store.SearchSongs(ctx, term, SearchLimit)
	if err != nil {
		return catalog.SearchResults{}, errors.Wrap(err, "failed to search songs")
	}
	albums, err := s.store.SearchAlbums(ctx, term, SearchLimit)
	if err != nil {
		return catalog.SearchResults{}, errors.Wrap(err, "failed to search albums")
	}
	artists, err := s.store.SearchArtists(ctx, term, SearchLimit)
	if err != nil {
		return catalog.SearchResults{}, errors.Wrap(err, "failed to search artists")
	}

	rank(songs, term, func(t track.Track) string { return t.Title })
	rank(albums, term, func(a catalog.Album) string { return a.Title })
	rank(artists, term, func(a catalog.Artist) string { return a.Name })

	return catalog.SearchResults{
		Songs:   songs,
		Albums:  albums,
		Artists: artists,
	}, nil
}

// rank orders items by edit distance between their key and term.
// Equal distances keep the store order.
func rank[T any](items []T, term string, key func(T) string) {
	needle := normalize(term)
	sort.SliceStable(items, func(i, j int) bool {
		return distance(needle, key(items[i])) < distance(needle, key(items[j]))
	})
}

func distance(needle, s string) int {
	return levenshtein.ComputeDistance(needle, normalize(s))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
