// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization saves and restores graph parameters.
//
// Checkpoints are the native, bit-exact format with a SHA-256 checksum.
// SafeTensors files exchange weights with other frameworks.
//
// Example:
//
//	if _, err := serialization.SaveCheckpointFile("model.dgrd", g.StateDict(), serialization.Header{}); err != nil {
//	    log.Fatal(err)
//	}
//	state, _, err := serialization.LoadCheckpointFile("model.dgrd", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = g.LoadStateDict(state)
package serialization

import (
	"github.com/born-ml/dagrad/internal/serialization"
)

// Checkpoint header types.
type (
	Header         = serialization.Header
	CheckpointMeta = serialization.CheckpointMeta
	TensorMeta     = serialization.TensorMeta
	ReaderOptions  = serialization.ReaderOptions
)

// ValidationLevel controls how strictly headers are checked on read.
type ValidationLevel = serialization.ValidationLevel

// Validation levels.
const (
	ValidationStrict = serialization.ValidationStrict
	ValidationNormal = serialization.ValidationNormal
	ValidationNone   = serialization.ValidationNone
)

// SafeTensorsOptions configures WriteSafeTensors.
type SafeTensorsOptions = serialization.SafeTensorsOptions

// SafeTensors dtypes.
const (
	SafeTensorsF64  = serialization.SafeTensorsF64
	SafeTensorsF32  = serialization.SafeTensorsF32
	SafeTensorsF16  = serialization.SafeTensorsF16
	SafeTensorsBF16 = serialization.SafeTensorsBF16
)

// ValidationError details a malformed file.
type ValidationError = serialization.ValidationError

// Sentinel errors.
var (
	ErrChecksumMismatch   = serialization.ErrChecksumMismatch
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
	ErrUnsupportedDType   = serialization.ErrUnsupportedDType
	ErrTruncated          = serialization.ErrTruncated
)

// Reading and writing.
var (
	WriteCheckpoint    = serialization.WriteCheckpoint
	ReadCheckpoint     = serialization.ReadCheckpoint
	SaveCheckpointFile = serialization.SaveCheckpointFile
	LoadCheckpointFile = serialization.LoadCheckpointFile
	SaveGraph          = serialization.SaveGraph
	LoadGraph          = serialization.LoadGraph
	WriteSafeTensors   = serialization.WriteSafeTensors
	ReadSafeTensors    = serialization.ReadSafeTensors
)
