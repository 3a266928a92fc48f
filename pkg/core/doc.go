// Package core defines the shared language of the leapjoin system.
//
// This package contains:
//   - Backing-store data (Row, Rows, Column, TableMetadata)
//   - Configuration types (AdapterConfig, TargetConfig, DialectConfig)
//   - The error taxonomy (ReferenceError, ValidationError, NotFoundError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
