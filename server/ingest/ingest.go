// Package ingest turns the output of an external detector and tracker into events.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/logx"
	"github.com/cyclopcam/tracklog/pkg/nn"
	"github.com/cyclopcam/tracklog/server/eventstore"
)

// ErrFrameOrder is returned when a source goes back to an earlier frame within one run
var ErrFrameOrder = errors.New("Frame index decreased")

// Log progress every N frames
const progressInterval = 30

// Appender is the part of the event store that ingest writes through
type Appender interface {
	AppendBulk(recs []eventstore.Record) ([]int64, error)
}

// Ingester appends the frames of one video, processed by one tracker
type Ingester struct {
	Video         string
	Tracker       string
	Model         string           // Optional name of the detection model
	FPS           float64          // Frame rate of the video. Zero or less assumes 30 fps.
	SkipUntracked bool             // Drop detections that the tracker did not assign an identity to
	Classes       map[string]int64 // Optional class name to id mapping, consulted before COCO

	log   logs.Log
	store Appender
}

type Stats struct {
	Frames         int64 // Frames read from the source, including empty ones
	Events         int64 // Events committed to the store
	Untracked      int64 // Detections without a track id (skipped if SkipUntracked)
	UnknownClasses int64 // Detections whose class name could not be resolved
	FirstFrame     int64
	LastFrame      int64
	Duration       time.Duration
}

func NewIngester(log logs.Log, store Appender, video, tracker string) *Ingester {
	return &Ingester{
		Video:   video,
		Tracker: tracker,
		log:     logx.NewPrefixLogger(log, "Ingest"),
		store:   store,
	}
}

type frameResult struct {
	frame *Frame
	err   error
}

// readFrames decodes frames on its own goroutine, so that decoding the next frame overlaps
// with committing the previous one. It exits when the source is exhausted or done is closed.
func readFrames(src Source, done <-chan struct{}, out chan<- frameResult) {
	defer close(out)
	for {
		frame, err := src.Next()
		select {
		case out <- frameResult{frame, err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Run reads every frame from src, and appends each frame's detections in one transaction.
// The first failure stops the run. Frames committed before the failure remain in the store,
// and Stats describes them.
// Run checks ctx between frames, and returns after the source's current Next call completes.
func (in *Ingester) Run(ctx context.Context, src Source) (*Stats, error) {
	if in.Video == "" || in.Tracker == "" {
		return nil, fmt.Errorf("%w: video and tracker must be specified", eventstore.ErrInvalidEvent)
	}
	start := time.Now()
	stats := &Stats{FirstFrame: -1, LastFrame: -1}

	done := make(chan struct{})
	frames := make(chan frameResult, 1)
	go readFrames(src, done, frames)
	defer func() {
		close(done)
		for range frames {
		}
	}()

	in.log.Infof("Ingesting %v (tracker %v, fps %v)", in.Video, in.Tracker, in.FPS)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		var res frameResult
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case res = <-frames:
		}
		if errors.Is(res.err, io.EOF) {
			break
		} else if res.err != nil {
			return stats, fmt.Errorf("Failed to read frame after %v: %w", stats.LastFrame, res.err)
		}

		frame := res.frame
		if frame.Index < 0 {
			return stats, fmt.Errorf("%w: negative frame index %v", eventstore.ErrInvalidEvent, frame.Index)
		}
		if frame.Index < stats.LastFrame {
			return stats, fmt.Errorf("%w: frame %v follows frame %v", ErrFrameOrder, frame.Index, stats.LastFrame)
		}

		recs := in.frameRecords(frame, stats)
		if len(recs) != 0 {
			ids, err := in.store.AppendBulk(recs)
			if err != nil {
				in.log.Errorf("Failed to append frame %v: %v", frame.Index, err)
				return stats, fmt.Errorf("Failed to append frame %v: %w", frame.Index, err)
			}
			stats.Events += int64(len(ids))
		}

		if stats.FirstFrame == -1 {
			stats.FirstFrame = frame.Index
		}
		stats.LastFrame = frame.Index
		stats.Frames++
		if stats.Frames%progressInterval == 0 {
			in.log.Infof("Processed %v frames (%v events)", stats.Frames, stats.Events)
		}
	}

	stats.Duration = time.Since(start)
	in.log.Infof("Finished %v: %v frames, %v events, %v untracked, in %.1f seconds", in.Video, stats.Frames, stats.Events, stats.Untracked, stats.Duration.Seconds())
	if stats.UnknownClasses != 0 {
		in.log.Warnf("%v detections had an unrecognized class name", stats.UnknownClasses)
	}
	return stats, nil
}

func (in *Ingester) frameRecords(frame *Frame, stats *Stats) []eventstore.Record {
	recs := make([]eventstore.Record, 0, len(frame.Detections))
	timestamp := eventstore.TimestampMs(frame.Index, in.FPS)
	var model *string
	if in.Model != "" {
		model = &in.Model
	}

	for i := range frame.Detections {
		det := &frame.Detections[i]
		trackID := det.TrackID
		if trackID != nil && *trackID < 0 {
			trackID = nil
		}
		if trackID == nil {
			stats.Untracked++
			if in.SkipUntracked {
				continue
			}
		}
		classID := det.ClassID
		if classID == nil && det.ClassName != "" {
			classID = in.resolveClass(det.ClassName)
			if classID == nil {
				stats.UnknownClasses++
			}
		}
		recs = append(recs, eventstore.Record{
			Video:       in.Video,
			Tracker:     in.Tracker,
			Model:       model,
			FrameIdx:    frame.Index,
			TimestampMs: floatPtr(timestamp),
			TrackID:     trackID,
			ClassID:     classID,
			Conf:        det.Conf,
			X1:          det.X1,
			Y1:          det.Y1,
			X2:          det.X2,
			Y2:          det.Y2,
		})
	}
	return recs
}

func (in *Ingester) resolveClass(name string) *int64 {
	if id, ok := in.Classes[name]; ok {
		return &id
	}
	if id, ok := nn.COCOClassID(name); ok {
		return int64Ptr(int64(id))
	}
	return nil
}
