package dtype

import "golang.org/x/sys/cpu"

// HostOrder is the byte order of the running machine.
var HostOrder = hostOrder()

func hostOrder() Order {
	if cpu.IsBigEndian {
		return OrderBE
	}
	return OrderLE
}

// Native types in host byte order.
var (
	NativeInt8    = Int(1, true, HostOrder)
	NativeUint8   = Int(1, false, HostOrder)
	NativeInt16   = Int(2, true, HostOrder)
	NativeUint16  = Int(2, false, HostOrder)
	NativeInt32   = Int(4, true, HostOrder)
	NativeUint32  = Int(4, false, HostOrder)
	NativeInt64   = Int(8, true, HostOrder)
	NativeUint64  = Int(8, false, HostOrder)
	NativeFloat32 = IEEEFloat32(HostOrder)
	NativeFloat64 = IEEEFloat64(HostOrder)
)
