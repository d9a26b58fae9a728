package nn

// Rect is an axis-aligned box in pixel coordinates, stored as origin and size
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Corners returns the top-left and bottom-right corners (x1,y1,x2,y2)
func (r Rect) Corners() (x1, y1, x2, y2 float64) {
	return r.X, r.Y, r.X + r.Width, r.Y + r.Height
}
