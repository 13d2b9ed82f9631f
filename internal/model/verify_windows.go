//go:build windows

package model

import (
	"context"
	"errors"
	"io"
)

type VerifyOptions struct {
	Paths         Paths
	ORTLibrary    string
	ORTAPIVersion uint32
	Stdout        io.Writer
	Stderr        io.Writer
}

func VerifyONNX(_ context.Context, _ VerifyOptions) error {
	return errors.New("onnx model verification is unavailable on windows in this build")
}
