package amf

import "github.com/gogpu/hwcodec"

var (
	encodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIOpenCL, hwcodec.APIVulkan}
	decodeAPIs = []hwcodec.GraphicsAPI{hwcodec.APIOpenCL, hwcodec.APIVulkan}
)
