package service

import (
	"math"

	"moviemeter/internal/models"
)

// AverageRating is the mean of the owner's score and every peer score,
// rounded to one decimal place.
func AverageRating(ownerScore float64, peers models.UserRatings) float64 {
	sum := ownerScore
	for _, p := range peers {
		sum += p.Rating
	}
	return round1(sum / float64(1+len(peers)))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
