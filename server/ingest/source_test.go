package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAllFrames(t *testing.T, src Source) []*Frame {
	t.Helper()
	frames := []*Frame{}
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, f)
	}
}

func TestJSONLSource(t *testing.T) {
	input := `
{"frame": 0, "track_id": 1, "class": "car", "conf": 0.9, "x1": 10, "y1": 20, "x2": 50, "y2": 60}
{"frame": 0, "track_id": -1, "class_id": 0, "box": [1, 2, 3, 4]}

{"frame": 1}
{"frame": 2, "x1": 0, "y1": 0, "x2": 5, "y2": 5}
`
	frames := readAllFrames(t, NewJSONLSource(strings.NewReader(input)))
	require.Len(t, frames, 3)

	require.Equal(t, int64(0), frames[0].Index)
	require.Len(t, frames[0].Detections, 2)
	d := frames[0].Detections[0]
	require.Equal(t, int64(1), *d.TrackID)
	require.Equal(t, "car", d.ClassName)
	require.Nil(t, d.ClassID)
	require.Equal(t, 0.9, *d.Conf)
	require.Equal(t, []float64{10, 20, 50, 60}, []float64{d.X1, d.Y1, d.X2, d.Y2})
	d = frames[0].Detections[1]
	require.Equal(t, int64(-1), *d.TrackID)
	require.Equal(t, int64(0), *d.ClassID)
	require.Nil(t, d.Conf)
	require.Equal(t, []float64{1, 2, 3, 4}, []float64{d.X1, d.Y1, d.X2, d.Y2})

	// Frame marker
	require.Equal(t, int64(1), frames[1].Index)
	require.Len(t, frames[1].Detections, 0)

	require.Equal(t, int64(2), frames[2].Index)
	require.Len(t, frames[2].Detections, 1)
}

func TestJSONLSourceErrors(t *testing.T) {
	cases := map[string]string{
		"missing frame":  `{"x1": 0, "y1": 0, "x2": 1, "y2": 1}`,
		"incomplete box": `{"frame": 0, "x1": 0, "y1": 0}`,
		"bad box":        `{"frame": 0, "box": [1, 2, 3]}`,
		"not json":       `frame=0`,
	}
	for name, input := range cases {
		src := NewJSONLSource(strings.NewReader("{\"frame\": 0}\n" + input + "\n"))
		_, err := src.Next()
		require.Error(t, err, name)
		require.Contains(t, err.Error(), "line 2", name)
	}
}

func TestCSVSource(t *testing.T) {
	input := `frame_idx,track_id,class_id,class_name,confidence,x1,y1,x2,y2
0,1,,person,0.75,10,20,30,40
0,,2,,,0,0,1,1
1,,,,,,,,
3,4,,,,5,5,15,25
`
	src, err := NewCSVSource(strings.NewReader(input))
	require.NoError(t, err)
	frames := readAllFrames(t, src)
	require.Len(t, frames, 3)

	require.Len(t, frames[0].Detections, 2)
	d := frames[0].Detections[0]
	require.Equal(t, int64(1), *d.TrackID)
	require.Equal(t, "person", d.ClassName)
	require.Nil(t, d.ClassID)
	require.Equal(t, 0.75, *d.Conf)
	require.Equal(t, []float64{10, 20, 30, 40}, []float64{d.X1, d.Y1, d.X2, d.Y2})
	d = frames[0].Detections[1]
	require.Nil(t, d.TrackID)
	require.Equal(t, int64(2), *d.ClassID)
	require.Nil(t, d.Conf)

	require.Equal(t, int64(1), frames[1].Index)
	require.Len(t, frames[1].Detections, 0)

	require.Equal(t, int64(3), frames[2].Index)
	require.Equal(t, int64(4), *frames[2].Detections[0].TrackID)
}

func TestCSVSourceErrors(t *testing.T) {
	_, err := NewCSVSource(strings.NewReader(""))
	require.Error(t, err)

	_, err = NewCSVSource(strings.NewReader("frame,x1,y1,x2\n"))
	require.ErrorContains(t, err, "y2")

	src, err := NewCSVSource(strings.NewReader("frame,x1,y1,x2,y2\n0,1,2,3,4\n1,abc,2,3,4\n"))
	require.NoError(t, err)
	_, err = src.Next()
	require.ErrorContains(t, err, "line 3")
}

func TestLabelsSource(t *testing.T) {
	input := `{
		"frames": [
			{"frame": 0, "objects": [{"class": 2, "confidence": 0.5, "box": {"x": 10, "y": 20, "width": 30, "height": 40}, "track_id": 9}]},
			{"frame": 1, "objects": []}
		]
	}`
	src, err := NewLabelsSource(strings.NewReader(input))
	require.NoError(t, err)
	frames := readAllFrames(t, src)
	require.Len(t, frames, 2)
	d := frames[0].Detections[0]
	require.Equal(t, []float64{10, 20, 40, 60}, []float64{d.X1, d.Y1, d.X2, d.Y2})
	require.Equal(t, int64(2), *d.ClassID)
	require.Equal(t, int64(9), *d.TrackID)
	require.Equal(t, 0.5, *d.Conf)
	require.Len(t, frames[1].Detections, 0)

	// With a custom class list, the index into that list is the class id, even when
	// the name is also a COCO name
	input = `{"classes": ["forklift", "person"], "frames": [{"frame": 4, "objects": [{"class": 1, "confidence": 1, "box": {"x": 0, "y": 0, "width": 1, "height": 1}}]}]}`
	src, err = NewLabelsSource(strings.NewReader(input))
	require.NoError(t, err)
	frames = readAllFrames(t, src)
	require.Equal(t, int64(1), *frames[0].Detections[0].ClassID)
	require.Equal(t, "person", frames[0].Detections[0].ClassName)
}
