// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package detection analyzes a badge event stream for the anomalies the
// simulator injects and infers room semantics from access patterns.
//
// Detection Architecture:
//
//	[]events.Event -> prepare (resolve, group by user) -> Engine
//	                                                        |
//	                   +------------------+-----------------+
//	                   v                  v                 v
//	          ImpossibleTravel       CuriousUser      RoomClassifier
//	                   |                  |                 |
//	                   +------------------+-----------------+
//	                                      v
//	                                   Report -> Evaluate(answer key)
//
// Supported Detectors:
//   - Impossible Travel: consecutive events of one user that are closer in
//     time than the travel table allows between their rooms. A user with at
//     least one violation is a suspected cloned badge.
//   - Curious User: users who fail on many distinct rooms in one day, or
//     whose failure rate is an outlier in the population.
//   - Room Classifier: rule-based category inference from per-room
//     aggregate statistics (dwell, time of day, user mix).
//
// Detectors are read-only over the prepared input and run concurrently.
// Events referencing rooms the index does not know, or whose building and
// location disagree with the index, are skipped and counted.
package detection
