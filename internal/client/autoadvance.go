package client

import "github.com/Ayush94-1708/music-glass/internal/domain"

// PickNext chooses the track after current. The most liked track other than
// the current one wins, ties going to the earlier catalog entry; with no
// likes elsewhere playback just moves on sequentially.
func PickNext(catalog []string, current int, likes domain.Likes) int {
	if len(catalog) == 0 {
		return 0
	}
	best, bestCount := -1, 0
	for i, id := range catalog {
		if i == current {
			continue
		}
		if n := likes.Count(id); n > bestCount {
			best, bestCount = i, n
		}
	}
	if best >= 0 {
		return best
	}
	return (current + 1) % len(catalog)
}

// PickPrev steps back one track, wrapping to the end.
func PickPrev(catalog []string, current int) int {
	if len(catalog) == 0 {
		return 0
	}
	return (current - 1 + len(catalog)) % len(catalog)
}
