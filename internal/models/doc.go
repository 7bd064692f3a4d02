// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

// Package models defines the records exchanged between Lodestar and the host
// learning platform (algorithms, posts, learning records, interactions) and
// the JSON envelope used by the HTTP API.
//
// The host application owns these entities; Lodestar only reads them through
// the catalog package and never persists them itself.
package models
