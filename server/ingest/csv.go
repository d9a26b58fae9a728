package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names recognized in a CSV detection file. Only frame and the box are required.
// Empty cells mean "not reported".
const (
	colFrame   = "frame"
	colTrackID = "track_id"
	colClassID = "class_id"
	colClass   = "class"
	colConf    = "conf"
	colX1      = "x1"
	colY1      = "y1"
	colX2      = "x2"
	colY2      = "y2"
)

// Alternative header spellings
var csvAliases = map[string]string{
	"frame_idx":  colFrame,
	"class_name": colClass,
	"confidence": colConf,
}

// NewCSVSource reads detections from a CSV stream with a header row, for example
//
//	frame,track_id,class_id,class,conf,x1,y1,x2,y2
//	0,1,2,car,0.9,10,20,50,60
//	1,,,,,,,,
//
// A row with an empty box is a frame marker. Consecutive rows with the same frame form one frame.
func NewCSVSource(r io.Reader) (Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV file is empty")
	} else if err != nil {
		return nil, fmt.Errorf("Failed to read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if alias, ok := csvAliases[name]; ok {
			name = alias
		}
		cols[name] = i
	}
	for _, required := range []string{colFrame, colX1, colY1, colX2, colY2} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV header is missing column '%v'", required)
		}
	}

	readRow := func() (int64, *Detection, error) {
		rec, err := cr.Read()
		if err != nil {
			return 0, nil, err
		}
		line, _ := cr.FieldPos(0)
		frame, det, err := parseCSVRow(cols, rec)
		if err != nil {
			return 0, nil, fmt.Errorf("line %v: %w", line, err)
		}
		return frame, det, nil
	}

	return &frameGrouper{readRow: readRow}, nil
}

func parseCSVRow(cols map[string]int, rec []string) (int64, *Detection, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	optInt := func(name string) (*int64, error) {
		s := cell(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %v '%v'", name, s)
		}
		return &v, nil
	}
	optFloat := func(name string) (*float64, error) {
		s := cell(name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %v '%v'", name, s)
		}
		return &v, nil
	}

	frame, err := optInt(colFrame)
	if err != nil {
		return 0, nil, err
	}
	if frame == nil {
		return 0, nil, fmt.Errorf("missing frame")
	}

	corners := [4]*float64{}
	nCorners := 0
	for i, name := range []string{colX1, colY1, colX2, colY2} {
		if corners[i], err = optFloat(name); err != nil {
			return 0, nil, err
		}
		if corners[i] != nil {
			nCorners++
		}
	}
	if nCorners == 0 {
		return *frame, nil, nil
	} else if nCorners != 4 {
		return 0, nil, fmt.Errorf("incomplete box: x1, y1, x2, y2 must all be present")
	}

	det := &Detection{
		X1:        *corners[0],
		Y1:        *corners[1],
		X2:        *corners[2],
		Y2:        *corners[3],
		ClassName: cell(colClass),
	}
	if det.TrackID, err = optInt(colTrackID); err != nil {
		return 0, nil, err
	}
	if det.ClassID, err = optInt(colClassID); err != nil {
		return 0, nil, err
	}
	if det.Conf, err = optFloat(colConf); err != nil {
		return 0, nil, err
	}
	return *frame, det, nil
}
