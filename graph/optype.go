// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

// OpType enumerates the operations the graph model knows how to infer shapes for.
//
// Shape inference switches over all values: adding a new OpType requires adding its rule
// in Op.inferShapes, otherwise it fails with ErrNotImplemented.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota
	OpTypeLinear
	OpTypeGELU
)
