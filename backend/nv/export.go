//go:build cgo && nv

package nv

/*
#include <stdint.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/gogpu/hwcodec/internal/sdk"
)

//export hwcodecNVPacket
func hwcodecNVPacket(data *C.uint8_t, n C.int32_t, key C.int32_t, obj unsafe.Pointer) {
	if obj == nil {
		return
	}
	sink := (*(*cgo.Handle)(obj)).Value().(*sdk.PacketSink)
	sink.Add(unsafe.Slice((*byte)(unsafe.Pointer(data)), int(n)), key != 0)
}

//export hwcodecNVTexture
func hwcodecNVTexture(opaque, obj unsafe.Pointer) {
	if obj == nil {
		return
	}
	(*(*cgo.Handle)(obj)).Value().(*sdk.TextureSink).Add(opaque)
}
