package disk_test

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

// trackingOpener hands out MemDevices over data and records every device and
// the sectors read through it.
type trackingOpener struct {
	data       []byte
	sectorSize uint32
	geomErr    error
	openErr    error

	devices []*trackedDevice
}

type trackedDevice struct {
	*fs.MemDevice
	geomErr error
	seeks   []int64
}

func (d *trackedDevice) SectorSize() (uint32, error) {
	if d.geomErr != nil {
		return 0, d.geomErr
	}
	return d.MemDevice.SectorSize()
}

func (d *trackedDevice) Seek(off int64, whence int) (int64, error) {
	d.seeks = append(d.seeks, off)
	return d.MemDevice.Seek(off, whence)
}

func (o *trackingOpener) open(string) (fs.Device, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	d := &trackedDevice{MemDevice: fs.NewMemDevice(o.data, o.sectorSize), geomErr: o.geomErr}
	o.devices = append(o.devices, d)
	return d, nil
}

func (o *trackingOpener) requireAllClosed(t *testing.T) {
	t.Helper()
	for i, d := range o.devices {
		require.True(t, d.Closed(), "device %d left open", i)
	}
}

func (o *trackingOpener) seekCount() int {
	n := 0
	for _, d := range o.devices {
		n += len(d.seeks)
	}
	return n
}

func newIO(o *trackingOpener) *disk.SectorIO {
	return disk.NewSectorIO(o.open, nil)
}

func patternImage(sectorSize, sectors int) []byte {
	img := make([]byte, sectorSize*sectors)
	for i := range img {
		img[i] = byte(i/sectorSize + 1)
	}
	return img
}

func TestReadSector(t *testing.T) {
	for _, ss := range []int{512, 4096} {
		o := &trackingOpener{data: patternImage(ss, 8), sectorSize: uint32(ss)}
		sio := newIO(o)

		buf := make([]byte, ss+16)
		for i := range buf {
			buf[i] = 0xCC
		}

		n, err := sio.ReadSector("disk", 3, buf)
		require.NoError(t, err)
		require.Equal(t, ss, n)
		for i := 0; i < ss; i++ {
			require.Equal(t, byte(4), buf[i])
		}
		for i := ss; i < len(buf); i++ {
			require.Equal(t, byte(0xCC), buf[i], "byte past the sector was written")
		}
		o.requireAllClosed(t)
	}
}

func TestReadSectorInsufficientBuffer(t *testing.T) {
	o := &trackingOpener{data: patternImage(4096, 4), sectorSize: 4096}
	sio := newIO(o)

	buf := make([]byte, 512)
	n, err := sio.ReadSector("disk", 0, buf)
	require.ErrorIs(t, err, disk.ErrInsufficientBuffer)
	require.Equal(t, 4096, n)

	required, ok := disk.RequiredSize(err)
	require.True(t, ok)
	require.Equal(t, 4096, required)

	require.Equal(t, make([]byte, 512), buf)
	require.Zero(t, o.seekCount())
	o.requireAllClosed(t)

	buf = make([]byte, required)
	n, err = sio.ReadSector("disk", 0, buf)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
}

func TestReadSectorInvalidParameters(t *testing.T) {
	o := &trackingOpener{data: patternImage(512, 4), sectorSize: 512}
	sio := newIO(o)

	_, err := sio.ReadSector("disk", -1, make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrInvalidParameter)
	require.Empty(t, o.devices, "device opened for a negative index")

	_, err = sio.ReadSector("disk", 0, nil)
	require.ErrorIs(t, err, disk.ErrInvalidParameter)

	_, err = sio.ReadSector("", 0, make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrInvalidParameter)
}

func TestReadSectorOverflow(t *testing.T) {
	o := &trackingOpener{data: patternImage(512, 4), sectorSize: 512}
	sio := newIO(o)

	for _, idx := range []int64{math.MaxInt64/512 + 1, math.MaxInt64} {
		_, err := sio.ReadSector("disk", idx, make([]byte, 512))
		require.ErrorIs(t, err, disk.ErrOverflow)
		require.Equal(t, disk.OverflowError, disk.KindOf(err))
	}
	require.Zero(t, o.seekCount())
	o.requireAllClosed(t)

	_, err := sio.ReadSector("disk", math.MaxInt64/512, make([]byte, 512))
	require.Error(t, err)
	require.NotEqual(t, disk.OverflowError, disk.KindOf(err))
}

func TestReadSectorPastEnd(t *testing.T) {
	o := &trackingOpener{data: patternImage(512, 4), sectorSize: 512}
	sio := newIO(o)

	for _, idx := range []int64{4, 100} {
		n, err := sio.ReadSector("disk", idx, make([]byte, 512))
		require.Error(t, err)
		require.Zero(t, n)
		kind := disk.KindOf(err)
		require.True(t, kind == disk.SeekFailed || kind == disk.ReadFailed, "unexpected kind %s", kind)
	}

	truncated := &trackingOpener{data: patternImage(512, 4)[:512*3+100], sectorSize: 512}
	_, err := newIO(truncated).ReadSector("disk", 3, make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrReadFailed)
	o.requireAllClosed(t)
	truncated.requireAllClosed(t)
}

func TestReadSectorGeometry(t *testing.T) {
	for _, ss := range []uint32{0, 256, 511, disk.MaxSectorSize + 1} {
		o := &trackingOpener{data: patternImage(512, 4), sectorSize: ss}
		_, err := newIO(o).ReadSector("disk", 0, make([]byte, disk.MaxSectorSize*2))
		require.ErrorIs(t, err, disk.ErrSectorSizeOutOfRange)
		o.requireAllClosed(t)
	}

	o := &trackingOpener{data: patternImage(512, 4), sectorSize: 512, geomErr: errors.New("ioctl failed")}
	_, err := newIO(o).ReadSector("disk", 0, make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrGeometryQueryFailed)
	require.ErrorContains(t, err, "ioctl failed")
	o.requireAllClosed(t)
}

func TestReadSectorOpenFailure(t *testing.T) {
	o := &trackingOpener{openErr: errors.New("access denied")}
	_, err := newIO(o).ReadSector("disk", 0, make([]byte, 512))
	require.ErrorIs(t, err, disk.ErrOpenFailed)

	var derr *disk.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "disk", derr.Path)
}

func TestQuerySectorSize(t *testing.T) {
	o := &trackingOpener{data: patternImage(4096, 2), sectorSize: 4096}
	size, err := newIO(o).QuerySectorSize("disk")
	require.NoError(t, err)
	require.EqualValues(t, 4096, size)
	o.requireAllClosed(t)

	o = &trackingOpener{data: patternImage(512, 2), sectorSize: 128}
	_, err = newIO(o).QuerySectorSize("disk")
	require.ErrorIs(t, err, disk.ErrInvalidParameter)

	o = &trackingOpener{data: patternImage(512, 2), sectorSize: 512, geomErr: errors.New("boom")}
	_, err = newIO(o).QuerySectorSize("disk")
	require.ErrorIs(t, err, disk.ErrGeometryQueryFailed)
	o.requireAllClosed(t)
}

func TestReadSectorImageFile(t *testing.T) {
	path := t.TempDir() + "/disk.img"
	require.NoError(t, os.WriteFile(path, patternImage(512, 4), 0o644))

	buf := make([]byte, 512)
	n, err := disk.ReadSector(path, 2, buf)
	require.NoError(t, err)
	require.Equal(t, 512, n)
	require.Equal(t, byte(3), buf[0])

	size, err := disk.QuerySectorSize(path)
	require.NoError(t, err)
	require.EqualValues(t, fs.DefaultSectorSize, size)
}
