package memory

import "math"

// Shape size bounds.
const (
	MinShapeSize = 4
	MaxShapeSize = 15
)

// MaxLives is the number of lives a run starts with and is restored to on a
// paid continue.
const MaxLives = 3

// MemorizeSeconds returns how long the shape is shown at the given level.
func MemorizeSeconds(level int) int {
	if level <= 7 {
		return 7
	}
	return 10
}

// RecallSeconds returns how long the player has to recreate the shape.
func RecallSeconds(level int) int {
	s := 15 - level/3
	if s < 10 {
		return 10
	}
	return s
}

// ShapeSize returns the number of cells requested from the generator.
func ShapeSize(level int) int {
	n := 4 + level/2
	if n < MinShapeSize {
		return MinShapeSize
	}
	if n > MaxShapeSize {
		return MaxShapeSize
	}
	return n
}

// RoundScore returns the points awarded for a round.
func RoundScore(level int, accuracy float64) int {
	return int(math.Floor(float64(level) * 100 * accuracy))
}

// Accuracy is 1 when the selection matches the shape exactly and 0
// otherwise. An empty selection never matches.
func Accuracy(shape Shape, sel Selection) float64 {
	if sel.Len() == 0 {
		return 0
	}
	if sel != shape.Set() {
		return 0
	}
	return 1
}
