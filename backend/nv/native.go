//go:build cgo && nv

package nv

/*
#cgo LDFLAGS: -lhwcodec_nv -lstdc++
#cgo linux LDFLAGS: -ldl

#include <stdbool.h>
#include <stdint.h>

typedef struct { int64_t luid; } AdapterDesc;
typedef void (*EncodeCallback)(const uint8_t *data, int32_t len, int32_t key, const void *obj);
typedef void (*DecodeCallback)(void *opaque, const void *obj);

int nv_encode_driver_support(void);
int nv_decode_driver_support(void);

void *nv_new_encoder(void *handle, int64_t luid, int32_t api, int32_t dataFormat,
                     int32_t width, int32_t height, int32_t kbs, int32_t framerate,
                     int32_t gop, int32_t q_min, int32_t q_max);
int nv_encode(void *encoder, void *tex, EncodeCallback callback, void *obj);
int nv_destroy_encoder(void *encoder);
int nv_test_encode(void *outDescs, int32_t maxDescNum, int32_t *outDescNum,
                   int32_t api, int32_t dataFormat, int32_t width, int32_t height,
                   int32_t kbs, int32_t framerate, int32_t gop, int32_t q_min, int32_t q_max);
int nv_set_bitrate(void *encoder, int32_t kbs);
int nv_set_qp(void *encoder, int32_t q_min, int32_t q_max);
int nv_set_framerate(void *encoder, int32_t framerate);

void *nv_new_decoder(void *device, int64_t luid, int32_t api, int32_t dataFormat,
                     bool outputSharedHandle);
int nv_decode(void *decoder, uint8_t *data, int len, DecodeCallback callback, void *obj);
int nv_destroy_decoder(void *decoder);
int nv_test_decode(AdapterDesc *outDescs, int32_t maxDescNum, int32_t *outDescNum,
                   int32_t api, int32_t dataFormat, bool outputSharedHandle,
                   uint8_t *data, int32_t length);

extern void hwcodecNVPacket(uint8_t *data, int32_t len, int32_t key, void *obj);
extern void hwcodecNVTexture(void *opaque, void *obj);

static int nv_encode_go(void *encoder, void *tex, void *obj) {
	return nv_encode(encoder, tex, (EncodeCallback)hwcodecNVPacket, obj);
}

static int nv_decode_go(void *decoder, uint8_t *data, int len, void *obj) {
	return nv_decode(decoder, data, len, (DecodeCallback)hwcodecNVTexture, obj);
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/gogpu/hwcodec/internal/sdk"
)

func bindNative(cfg *sdk.Config) {
	cfg.EncodeSupport = func() int32 { return int32(C.nv_encode_driver_support()) }
	cfg.DecodeSupport = func() int32 { return int32(C.nv_decode_driver_support()) }
	cfg.Encode = &sdk.EncodeABI{
		New:          newEncoder,
		Encode:       encode,
		Destroy:      func(enc unsafe.Pointer) int32 { return int32(C.nv_destroy_encoder(enc)) },
		Test:         testEncode,
		SetBitrate:   func(enc unsafe.Pointer, kbps int32) int32 { return int32(C.nv_set_bitrate(enc, C.int32_t(kbps))) },
		SetQP:        func(enc unsafe.Pointer, lo, hi int32) int32 { return int32(C.nv_set_qp(enc, C.int32_t(lo), C.int32_t(hi))) },
		SetFramerate: func(enc unsafe.Pointer, fps int32) int32 { return int32(C.nv_set_framerate(enc, C.int32_t(fps))) },
	}
	cfg.Decode = &sdk.DecodeABI{
		New:     newDecoder,
		Decode:  decode,
		Destroy: func(dec unsafe.Pointer) int32 { return int32(C.nv_destroy_decoder(dec)) },
		Test:    testDecode,
	}
}

func newEncoder(p sdk.EncodeParams) unsafe.Pointer {
	return C.nv_new_encoder(p.Device, C.int64_t(p.LUID), C.int32_t(p.API), C.int32_t(p.Format),
		C.int32_t(p.Width), C.int32_t(p.Height), C.int32_t(p.Kbps), C.int32_t(p.Framerate),
		C.int32_t(p.GOP), C.int32_t(p.QPMin), C.int32_t(p.QPMax))
}

func encode(enc, tex unsafe.Pointer, sink *sdk.PacketSink) int32 {
	h := cgo.NewHandle(sink)
	defer h.Delete()
	return int32(C.nv_encode_go(enc, tex, unsafe.Pointer(&h)))
}

func testEncode(p sdk.EncodeParams, luids []int64) (int, int32) {
	descs := make([]C.AdapterDesc, len(luids))
	var n C.int32_t
	rc := C.nv_test_encode(unsafe.Pointer(&descs[0]), C.int32_t(len(descs)), &n,
		C.int32_t(p.API), C.int32_t(p.Format), C.int32_t(p.Width), C.int32_t(p.Height),
		C.int32_t(p.Kbps), C.int32_t(p.Framerate), C.int32_t(p.GOP), C.int32_t(p.QPMin), C.int32_t(p.QPMax))
	return copyLUIDs(luids, descs, int(n)), int32(rc)
}

func newDecoder(p sdk.DecodeParams) unsafe.Pointer {
	return C.nv_new_decoder(p.Device, C.int64_t(p.LUID), C.int32_t(p.API), C.int32_t(p.Format),
		C.bool(p.OutputSharedHandle))
}

func decode(dec unsafe.Pointer, data []byte, sink *sdk.TextureSink) int32 {
	if len(data) == 0 {
		return -1
	}
	h := cgo.NewHandle(sink)
	defer h.Delete()
	return int32(C.nv_decode_go(dec, (*C.uint8_t)(unsafe.Pointer(&data[0])), C.int(len(data)), unsafe.Pointer(&h)))
}

func testDecode(p sdk.DecodeParams, sample []byte, luids []int64) (int, int32) {
	descs := make([]C.AdapterDesc, len(luids))
	var n C.int32_t
	rc := C.nv_test_decode(&descs[0], C.int32_t(len(descs)), &n, C.int32_t(p.API), C.int32_t(p.Format),
		C.bool(p.OutputSharedHandle), (*C.uint8_t)(unsafe.Pointer(&sample[0])), C.int32_t(len(sample)))
	return copyLUIDs(luids, descs, int(n)), int32(rc)
}

func copyLUIDs(dst []int64, descs []C.AdapterDesc, n int) int {
	n = min(n, len(dst), len(descs))
	for i := range n {
		dst[i] = int64(descs[i].luid)
	}
	return n
}
