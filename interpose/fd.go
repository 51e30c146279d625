package interpose

import (
	"fmt"

	"tractor.dev/memfile/vfs"
)

type Kind uint8

const (
	Real Kind = iota + 1
	Virtual
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Virtual:
		return "virtual"
	}
	return "invalid"
}

// Fd is a descriptor handed out by FS.OpenFd. It records which side owns
// the open file, so virtual and real descriptors can never be confused
// whatever their numeric values. The zero Fd is invalid.
type Fd struct {
	kind Kind
	id   int64
}

func virtualFd(id vfs.ID) Fd { return Fd{kind: Virtual, id: int64(id)} }
func realFd(id int64) Fd     { return Fd{kind: Real, id: id} }

func (fd Fd) Kind() Kind      { return fd.kind }
func (fd Fd) ID() int64       { return fd.id }
func (fd Fd) IsVirtual() bool { return fd.kind == Virtual }
func (fd Fd) Valid() bool     { return fd.kind == Real || fd.kind == Virtual }

func (fd Fd) String() string {
	return fmt.Sprintf("%s:%d", fd.kind, fd.id)
}
