package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
)

var (
	ErrInvalid      = iofs.ErrInvalid
	ErrPermission   = iofs.ErrPermission
	ErrExist        = iofs.ErrExist
	ErrNotExist     = iofs.ErrNotExist
	ErrClosed       = iofs.ErrClosed
	ErrNotSupported = errors.New("operation not supported")

	// ErrOutOfRange reports a seek or truncate outside the valid range.
	// It matches ErrInvalid with errors.Is.
	ErrOutOfRange = fmt.Errorf("%w: out of range", iofs.ErrInvalid)

	SkipAll = iofs.SkipAll
	SkipDir = iofs.SkipDir
)

var (
	FormatDirEntry     = iofs.FormatDirEntry
	FormatFileInfo     = iofs.FormatFileInfo
	ValidPath          = iofs.ValidPath
	WalkDir            = iofs.WalkDir
	FileInfoToDirEntry = iofs.FileInfoToDirEntry
	ReadDir            = iofs.ReadDir
	Sub                = iofs.Sub
)

const (
	ModeDir        = iofs.ModeDir
	ModeAppend     = iofs.ModeAppend
	ModeExclusive  = iofs.ModeExclusive
	ModeTemporary  = iofs.ModeTemporary
	ModeSymlink    = iofs.ModeSymlink
	ModeDevice     = iofs.ModeDevice
	ModeNamedPipe  = iofs.ModeNamedPipe
	ModeSocket     = iofs.ModeSocket
	ModeSetuid     = iofs.ModeSetuid
	ModeSetgid     = iofs.ModeSetgid
	ModeCharDevice = iofs.ModeCharDevice
	ModeSticky     = iofs.ModeSticky
	ModeIrregular  = iofs.ModeIrregular
	ModeType       = iofs.ModeType
	ModePerm       = iofs.ModePerm
)

type (
	DirEntry    = iofs.DirEntry
	FS          = iofs.FS
	File        = iofs.File
	FileInfo    = iofs.FileInfo
	FileMode    = iofs.FileMode
	PathError   = iofs.PathError
	ReadDirFS   = iofs.ReadDirFS
	ReadDirFile = iofs.ReadDirFile
	StatFS      = iofs.StatFS
	WalkDirFunc = iofs.WalkDirFunc
)
