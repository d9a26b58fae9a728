package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCOCOClassID(t *testing.T) {
	id, ok := COCOClassID("person")
	require.True(t, ok)
	require.Equal(t, COCOPerson, id)

	id, ok = COCOClassID(" Traffic_Light ")
	require.True(t, ok)
	require.Equal(t, COCOTrafficLight, id)

	_, ok = COCOClassID("unicorn")
	require.False(t, ok)

	require.Equal(t, 80, len(COCOClasses))
	require.Equal(t, "dog", COCOClassName(COCODog))
	require.Equal(t, "", COCOClassName(80))
	require.Equal(t, "", COCOClassName(-1))
}

func TestRectCorners(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 20, Height: 40}
	x1, y1, x2, y2 := r.Corners()
	require.Equal(t, []float64{10, 20, 30, 60}, []float64{x1, y1, x2, y2})
}

func TestVideoLabelsClassName(t *testing.T) {
	v := &VideoLabels{}
	require.Equal(t, "car", v.ClassName(COCOCar))
	v.Classes = []string{"forklift", "pallet"}
	require.Equal(t, "pallet", v.ClassName(1))
	require.Equal(t, "", v.ClassName(2))
}
