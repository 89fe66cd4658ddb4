// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"

	"go.uber.org/zap"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
)

type SubCompiler interface {
	CompileFile(ctx context.Context, r exc.Reporter, file idl.File, dumpTokens bool, dumpTree bool) (*idl.Module, error)
}

// DefaultSubCompilers routes files with the ATF extension, and explicitly
// named files with any other extension, through header detection.
func DefaultSubCompilers(logger *zap.Logger) map[idl.FileKind]SubCompiler {
	scatf := &SubCompilerATF{Logger: logger}
	scdetect := &SubCompilerDetect{ATF: scatf}
	return map[idl.FileKind]SubCompiler{
		idl.FileKindATF:  scdetect,
		idl.FileKindNone: scdetect,
	}
}
