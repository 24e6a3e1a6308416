package vpl

import "github.com/gogpu/hwcodec"

var (
	encodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIVAAPI}
	decodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIVAAPI}
)
