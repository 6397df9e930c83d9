// Copyright 2024 Churninator Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package dataset converts raw GUI trajectory datasets into training records in
the canonical action space.

Input is JSONL with one {"image", "instruction", "action"} object per line.
Each action string is parsed, normalized and re-rendered, and written as
{"image_path", "instruction", "action"} where image_path is prefixed with the
stage directory and action holds the canonical calls joined by a space.

Records without calls are counted as empty; records that fail to decode or
normalize are logged, counted as errors and skipped. Records are normalized
concurrently in bounded batches and written in input order.
*/
package dataset
