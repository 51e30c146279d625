package billyfs

import (
	"io"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractor.dev/memfile/vfs"
)

func setup(t *testing.T) (*FS, *vfs.FS, billy.Filesystem) {
	t.Helper()
	virt := vfs.New()
	_, err := virt.Register("/data/app.db", []byte("virtual content"))
	require.NoError(t, err)
	base := memfs.New()
	require.NoError(t, util.WriteFile(base, "/data/base.txt", []byte("base content"), 0644))
	return New(virt, base), virt, base
}

func TestOpenVirtual(t *testing.T) {
	fsys, _, _ := setup(t)

	b, err := util.ReadFile(fsys, "/data/app.db")
	require.NoError(t, err)
	assert.Equal(t, "virtual content", string(b))

	f, err := fsys.OpenFile("data/app.db", os.O_RDWR, 0)
	require.NoError(t, err)
	assert.Equal(t, "data/app.db", f.Name())
	_, err = f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	_, err = f.Write([]byte("!"))
	require.NoError(t, err)
	require.NoError(t, f.Lock())
	require.NoError(t, f.Unlock())
	require.NoError(t, f.Truncate(7))
	require.NoError(t, f.Close())

	fi, err := fsys.Stat("/data/app.db")
	require.NoError(t, err)
	assert.EqualValues(t, 7, fi.Size())
}

func TestFallthroughToBase(t *testing.T) {
	fsys, virt, base := setup(t)

	b, err := util.ReadFile(fsys, "/data/base.txt")
	require.NoError(t, err)
	assert.Equal(t, "base content", string(b))

	require.NoError(t, util.WriteFile(fsys, "/data/new.txt", []byte("created"), 0644))
	assert.False(t, virt.IsVirtual("/data/new.txt"))
	b, err = util.ReadFile(base, "/data/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "created", string(b))

	_, err = fsys.Stat("/data/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDirMergesVirtual(t *testing.T) {
	fsys, virt, _ := setup(t)
	_, err := virt.Register("/data/base.txt", []byte("shadow"))
	require.NoError(t, err)

	infos, err := fsys.ReadDir("/data")
	require.NoError(t, err)
	sizes := map[string]int64{}
	for _, fi := range infos {
		sizes[fi.Name()] = fi.Size()
	}
	assert.Equal(t, map[string]int64{"app.db": 15, "base.txt": 6}, sizes)

	_, err = virt.Register("/only/virtual", nil)
	require.NoError(t, err)
	infos, err = fsys.ReadDir("/only")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "virtual", infos[0].Name())
}

func TestChroot(t *testing.T) {
	fsys, _, _ := setup(t)
	sub, err := fsys.Chroot("data")
	require.NoError(t, err)

	b, err := util.ReadFile(sub, "app.db")
	require.NoError(t, err)
	assert.Equal(t, "virtual content", string(b))

	b, err = util.ReadFile(sub, "base.txt")
	require.NoError(t, err)
	assert.Equal(t, "base content", string(b))
}

func TestUnsupportedOnVirtual(t *testing.T) {
	fsys, virt, _ := setup(t)
	assert.ErrorIs(t, fsys.Remove("/data/app.db"), billy.ErrNotSupported)
	assert.ErrorIs(t, fsys.Rename("/data/app.db", "/data/moved.db"), billy.ErrNotSupported)
	assert.True(t, virt.IsVirtual("/data/app.db"))

	require.NoError(t, fsys.Remove("/data/base.txt"))
}
