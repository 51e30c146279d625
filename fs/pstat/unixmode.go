package pstat

import "io/fs"

const (
	sIFMT   = 0o170000
	sIFSOCK = 0o140000
	sIFLNK  = 0o120000
	sIFREG  = 0o100000
	sIFBLK  = 0o060000
	sIFDIR  = 0o040000
	sIFCHR  = 0o020000
	sIFIFO  = 0o010000

	sISUID = 0o4000
	sISGID = 0o2000
	sISVTX = 0o1000
)

// Order matters: a Go character device also carries ModeDevice.
var fileTypes = []struct {
	mode fs.FileMode
	unix uint32
}{
	{fs.ModeDir, sIFDIR},
	{fs.ModeSymlink, sIFLNK},
	{fs.ModeCharDevice, sIFCHR},
	{fs.ModeDevice, sIFBLK},
	{fs.ModeNamedPipe, sIFIFO},
	{fs.ModeSocket, sIFSOCK},
}

var specialBits = []struct {
	mode fs.FileMode
	unix uint32
}{
	{fs.ModeSetuid, sISUID},
	{fs.ModeSetgid, sISGID},
	{fs.ModeSticky, sISVTX},
}

// UnixModeToFileMode converts a st_mode value to an fs.FileMode.
func UnixModeToFileMode(unixMode uint32) fs.FileMode {
	mode := fs.FileMode(unixMode & 0o777)
	for _, b := range specialBits {
		if unixMode&b.unix != 0 {
			mode |= b.mode
		}
	}
	switch t := unixMode & sIFMT; t {
	case sIFCHR:
		return mode | fs.ModeDevice | fs.ModeCharDevice
	case sIFREG, 0:
		return mode
	default:
		for _, ft := range fileTypes {
			if ft.unix == t {
				return mode | ft.mode
			}
		}
		return mode | fs.ModeIrregular
	}
}

// FileModeToUnixMode converts an fs.FileMode to a st_mode value. Anything
// without a type bit is a regular file.
func FileModeToUnixMode(mode fs.FileMode) uint32 {
	unixMode := uint32(mode & fs.ModePerm)
	for _, b := range specialBits {
		if mode&b.mode != 0 {
			unixMode |= b.unix
		}
	}
	for _, ft := range fileTypes {
		if mode&ft.mode != 0 {
			return unixMode | ft.unix
		}
	}
	return unixMode | sIFREG
}
