//go:build !windows && !linux

package vpl

import "github.com/gogpu/hwcodec"

// The SDK has no supported API on this OS.
var encodeAPIs, decodeAPIs []hwcodec.GraphicsAPI
