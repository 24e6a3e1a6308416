package vpl

import "github.com/gogpu/hwcodec"

var (
	encodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIDX11}
	decodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIDX11}
)
