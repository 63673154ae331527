// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/meshdir-foundation/meshdir/lib/ref"

// recordRating appends one rating to the agent's history and
// recomputes the average from the full list. Summation runs in list
// order so every replica computes the identical float64.
func recordRating(t *txn, id ref.AgentID, record RatingRecord) error {
	key := reputationKey(id)
	reputation := Reputation{AgentID: id}
	if _, err := t.get(key, &reputation); err != nil {
		return err
	}

	reputation.Ratings = append(reputation.Ratings, record)
	reputation.TotalRatings = len(reputation.Ratings)

	var sum float64
	for _, rating := range reputation.Ratings {
		sum += rating.Rating
	}
	reputation.AverageRating = sum / float64(len(reputation.Ratings))

	return t.put(key, &reputation)
}
