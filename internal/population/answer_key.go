// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package population

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// AnswerKeyEntry is the ground truth of one user, written one JSON object
// per line. CloneDays is always an array, empty for non-cloned users.
type AnswerKeyEntry struct {
	UserID          string   `json:"user_id"`
	HomeLocation    string   `json:"home_location"`
	PrimaryBuilding string   `json:"primary_building"`
	Workspace       string   `json:"workspace"`
	AuthorizedRooms []string `json:"authorized_rooms"`
	BehaviorVariant Variant  `json:"behavior_variant"`
	CloneDays       []int    `json:"clone_days"`
}

// WriteAnswerKey writes the entries as JSON Lines.
func WriteAnswerKey(w io.Writer, entries []AnswerKeyEntry) error {
	bw := bufio.NewWriter(w)
	for i := range entries {
		e := entries[i]
		if e.CloneDays == nil {
			e.CloneDays = []int{}
		}
		if e.AuthorizedRooms == nil {
			e.AuthorizedRooms = []string{}
		}
		data, err := json.Marshal(&e)
		if err != nil {
			return fmt.Errorf("marshal answer key entry %s: %w", e.UserID, err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("write answer key: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write answer key: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush answer key: %w", err)
	}
	return nil
}

// ReadAnswerKey reads an answer key written by WriteAnswerKey. Unlike event
// files, a malformed line is an error.
func ReadAnswerKey(r io.Reader) ([]AnswerKeyEntry, error) {
	var out []AnswerKeyEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var e AnswerKeyEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("answer key line %d: %w", line, err)
		}
		if e.UserID == "" {
			return nil, fmt.Errorf("answer key line %d: user_id is required", line)
		}
		if _, err := ParseVariant(string(e.BehaviorVariant)); err != nil {
			return nil, fmt.Errorf("answer key line %d: %w", line, err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read answer key: %w", err)
	}
	return out, nil
}

// CloneSet returns the identifiers of cloned users in the entries.
func CloneSet(entries []AnswerKeyEntry) map[string]struct{} {
	return variantSet(entries, VariantCloned)
}

// CuriousSet returns the identifiers of curious users in the entries.
func CuriousSet(entries []AnswerKeyEntry) map[string]struct{} {
	return variantSet(entries, VariantCurious)
}

func variantSet(entries []AnswerKeyEntry, v Variant) map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range entries {
		if e.BehaviorVariant == v {
			out[e.UserID] = struct{}{}
		}
	}
	return out
}
