package analytics

import "math"

// Direction is the coarse compass heading of a track's net displacement.
// Image coordinates grow downwards, so a positive dy is "down".
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Classify maps a displacement onto one of the four directions.
// Horizontal wins only when it is strictly larger than vertical, so equal magnitudes
// (including no movement at all) classify as "down" or "up".
func Classify(dx, dy float64) Direction {
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return DirectionRight
		}
		return DirectionLeft
	}
	if dy > 0 {
		return DirectionDown
	}
	return DirectionUp
}
