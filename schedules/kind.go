// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package schedules

// Kind enumerates the execution strategies the cost model knows how to estimate.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -output=gen_kind_enumer.go kind.go

const (
	KindInvalid Kind = iota

	// KindNaive writes every intermediate tensor to bulk memory and reads it back.
	KindNaive

	// KindMemoryAware keeps intermediate tensors resident in fast memory.
	KindMemoryAware
)
