package domain

import "slices"

// TrackLikes is the tally of one track. Count always equals len(VoterIDs);
// it is derived on every mutation and never set on its own.
type TrackLikes struct {
	Count    int      `json:"count"`
	VoterIDs []string `json:"voterIds"`
}

// Likes maps a track id to its tally.
type Likes map[string]*TrackLikes

// Toggle flips the vote of voterID on trackID and reports whether the voter
// now likes the track. Missing entries are created lazily.
func (l Likes) Toggle(trackID, voterID string) bool {
	entry, ok := l[trackID]
	if !ok {
		entry = &TrackLikes{VoterIDs: []string{}}
		l[trackID] = entry
	}

	liked := false
	if i := slices.Index(entry.VoterIDs, voterID); i >= 0 {
		entry.VoterIDs = slices.Delete(entry.VoterIDs, i, i+1)
	} else {
		entry.VoterIDs = append(entry.VoterIDs, voterID)
		liked = true
	}
	entry.Count = len(entry.VoterIDs)
	return liked
}

// Reset drops the tally of a track. Reports whether anything was removed.
func (l Likes) Reset(trackID string) bool {
	if _, ok := l[trackID]; !ok {
		return false
	}
	delete(l, trackID)
	return true
}

// Count returns the number of votes for a track, zero when absent.
func (l Likes) Count(trackID string) int {
	if entry, ok := l[trackID]; ok {
		return entry.Count
	}
	return 0
}

// Clone deep-copies the map so it can be handed to other goroutines.
func (l Likes) Clone() Likes {
	out := make(Likes, len(l))
	for id, entry := range l {
		out[id] = &TrackLikes{
			Count:    entry.Count,
			VoterIDs: slices.Clone(entry.VoterIDs),
		}
	}
	return out
}
