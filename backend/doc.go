// Package backend links the bundled vendor backends into a program.
//
// Importing it registers every vendor package with hwcodec:
//
//	import _ "github.com/gogpu/hwcodec/backend"
//
// Each vendor package can also be imported on its own:
//
//	import _ "github.com/gogpu/hwcodec/backend/nv"
//
// # Build Tags
//
// The native bridges need cgo and one tag per SDK:
//
//	go build -tags "nv amf vpl" ./...
//
// Without a tag the vendor is still registered, but its probe reports
// that the SDK is not linked and both of its catalogs are empty.
//
// # Probing
//
// Before calling into a vendor SDK the catalogs check sysfs for a PCI
// device of that vendor (AMD 0x1002, NVIDIA 0x10de, Intel 0x8086). When
// sysfs is unavailable, as on Windows, the SDK's own driver check
// decides.
package backend
