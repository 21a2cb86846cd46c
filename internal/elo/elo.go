// Package elo implements the two-player Elo rating update. Pure computation:
// no I/O, no state, deterministic for identical inputs.
package elo

import "math"

const (
	// DefaultRating is assumed for a player whose rating property is empty.
	DefaultRating = 1000
	// DefaultK is used when a match carries no K-factor.
	DefaultK = 20
)

// Expected returns the expected score of the first player against the second.
// Expected(a, b) + Expected(b, a) == 1 for all ratings.
func Expected(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// Scores maps a goal differential to Elo match scores: 1/0 for a win,
// 0.5/0.5 for a draw.
func Scores(goalsA, goalsB int) (scoreA, scoreB float64) {
	switch {
	case goalsA > goalsB:
		return 1, 0
	case goalsA < goalsB:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// Update computes posterior ratings for both players from prior ratings,
// goal counts, and the K-factor. Results are rounded half away from zero
// (math.Round), so identical inputs always reproduce identical ratings.
func Update(ratingA, ratingB, goalsA, goalsB, k int) (newA, newB int) {
	scoreA, scoreB := Scores(goalsA, goalsB)
	expectedA := Expected(ratingA, ratingB)
	expectedB := 1 - expectedA

	newA = int(math.Round(float64(ratingA) + float64(k)*(scoreA-expectedA)))
	newB = int(math.Round(float64(ratingB) + float64(k)*(scoreB-expectedB)))
	return newA, newB
}
