//go:build !linux

package main

import "github.com/pkg/errors"

func makeRaw(fd int) (func(), error) {
	return nil, errors.New("raw mode is only supported on linux")
}
