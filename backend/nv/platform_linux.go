package nv

import "github.com/gogpu/hwcodec"

var (
	encodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APICUDA}
	decodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APICUDA}
)
