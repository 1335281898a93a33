//go:build windows

package daemon

func deviceID(string) (uint64, error) {
	return 0, errDeviceUnsupported
}
