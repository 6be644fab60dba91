// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package events

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// maxLineSize bounds a single JSON Lines record when reading.
const maxLineSize = 1 << 20

// record is the wire form of an Event.
type record struct {
	Timestamp     string `json:"timestamp"`
	UserID        string `json:"user_id"`
	RoomID        string `json:"room_id"`
	BuildingID    string `json:"building_id"`
	LocationID    string `json:"location_id"`
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason,omitempty"`
	EventType     string `json:"event_type,omitempty"`
}

// Options selects the optional extended fields.
type Options struct {
	IncludeFailureReason bool
	IncludeEventType     bool
}

// Serializer handles event encoding/decoding for JSON Lines output and bus
// messages.
type Serializer struct {
	opts Options
}

// NewSerializer creates a new serializer.
func NewSerializer(opts Options) *Serializer {
	return &Serializer{opts: opts}
}

// Marshal converts an event to one JSON object without a trailing newline.
func (s *Serializer) Marshal(event *Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	rec := record{
		Timestamp:  event.Timestamp.UTC().Format(TimestampLayout),
		UserID:     event.UserID,
		RoomID:     event.RoomID,
		BuildingID: event.BuildingID,
		LocationID: event.LocationID,
		Success:    event.Success,
	}
	if s.opts.IncludeFailureReason && !event.Success {
		rec.FailureReason = string(event.FailureReason)
	}
	if s.opts.IncludeEventType {
		rec.EventType = string(event.Type)
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal converts one JSON object to an event.
func (s *Serializer) Unmarshal(data []byte) (Event, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse timestamp %q: %w", rec.Timestamp, err)
	}

	event := Event{
		Timestamp:     ts.UTC(),
		UserID:        rec.UserID,
		RoomID:        rec.RoomID,
		BuildingID:    rec.BuildingID,
		LocationID:    rec.LocationID,
		Success:       rec.Success,
		FailureReason: FailureReason(rec.FailureReason),
		Type:          EventType(rec.EventType),
	}
	if err := event.Validate(); err != nil {
		return Event{}, fmt.Errorf("validate event: %w", err)
	}
	return event, nil
}

// ReadResult is the outcome of reading a JSON Lines event file.
type ReadResult struct {
	Events []Event
	// Malformed counts lines that could not be decoded (for example the
	// partial last line of a truncated file). They are skipped.
	Malformed int
	// FirstError describes the first malformed line, if any.
	FirstError error
}

// ReadAll decodes every event of a JSON Lines stream. Blank lines are
// ignored and malformed lines are skipped and counted; only I/O errors
// abort the read.
func (s *Serializer) ReadAll(r io.Reader) (*ReadResult, error) {
	res := &ReadResult{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		event, err := s.Unmarshal(data)
		if err != nil {
			res.Malformed++
			if res.FirstError == nil {
				res.FirstError = fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}
		res.Events = append(res.Events, event)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read events: %w", err)
	}
	return res, nil
}
