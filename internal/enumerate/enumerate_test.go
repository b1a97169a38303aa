package enumerate_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ostafen/diskprobe/internal/disk"
	"github.com/ostafen/diskprobe/internal/enumerate"
	"github.com/ostafen/diskprobe/internal/fs"
	"github.com/stretchr/testify/require"
)

type fakeInterface struct {
	path     string
	pathErr  error
	openErr  error
	sizeErr  error
	size     int
	propErr  error
	property []byte
}

type fakePlatform struct {
	interfaces    []fakeInterface
	interfacesErr error
	// failNextAt makes Next fail with a non terminal error at that index
	// during the pass numbered failPass (0 counts, 1 resolves).
	failNextAt int
	failPass   int
	// lateArrivals are appended once the counting pass is over.
	lateArrivals []fakeInterface

	opened []*fs.MemDevice
	pass   int
}

type fakeSource struct {
	p *fakePlatform
}

func (s *fakeSource) Next(i int) error {
	if i == 0 {
		s.p.pass++
		if s.p.pass == 2 {
			s.p.interfaces = append(s.p.interfaces, s.p.lateArrivals...)
		}
	}
	if s.p.failNextAt >= 0 && i == s.p.failNextAt && s.p.pass-1 == s.p.failPass {
		return errors.New("enumeration service failed")
	}
	if i >= len(s.p.interfaces) {
		return enumerate.ErrNoMoreItems
	}
	return nil
}

func (s *fakeSource) Path(i int) (string, error) {
	return s.p.interfaces[i].path, s.p.interfaces[i].pathErr
}

func (p *fakePlatform) Interfaces() (enumerate.Source, error) {
	if p.interfacesErr != nil {
		return nil, p.interfacesErr
	}
	return &fakeSource{p: p}, nil
}

func (p *fakePlatform) find(path string) *fakeInterface {
	for i := range p.interfaces {
		if p.interfaces[i].path == path {
			return &p.interfaces[i]
		}
	}
	return nil
}

func (p *fakePlatform) Open(path string) (fs.Device, error) {
	if err := p.find(path).openErr; err != nil {
		return nil, err
	}
	d := fs.NewMemDevice(make([]byte, 4096), 512)
	p.opened = append(p.opened, d)
	return &pathDevice{MemDevice: d, path: path}, nil
}

type pathDevice struct {
	*fs.MemDevice
	path string
}

func (p *fakePlatform) PropertySize(dev fs.Device) (int, error) {
	fi := p.find(dev.(*pathDevice).path)
	return fi.size, fi.sizeErr
}

func (p *fakePlatform) Property(dev fs.Device, buf []byte) (int, error) {
	fi := p.find(dev.(*pathDevice).path)
	if fi.propErr != nil {
		return 0, fi.propErr
	}
	return copy(buf, fi.property), nil
}

func (p *fakePlatform) Format() enumerate.DescriptorFormat {
	return enumerate.FormatSCSIInquiry
}

func inquiryData(vendor, product, rev string, removable bool) []byte {
	b := make([]byte, enumerate.InquiryStdSize)
	if removable {
		b[1] = 0x80
	}
	b[4] = enumerate.InquiryStdSize - enumerate.InquiryHeaderSize
	copy(b[8:16], pad(vendor, 8))
	copy(b[16:32], pad(product, 16))
	copy(b[32:36], pad(rev, 4))
	return b
}

func pad(s string, n int) []byte {
	b := []byte(s)
	for len(b) < n {
		b = append(b, ' ')
	}
	return b[:n]
}

func newPlatform(ifaces ...fakeInterface) *fakePlatform {
	return &fakePlatform{interfaces: ifaces, failNextAt: -1}
}

func TestEnumerate(t *testing.T) {
	inq := inquiryData("ATA", "Samsung SSD 870", "2B6Q", false)
	p := newPlatform(
		fakeInterface{path: "disk0", size: len(inq), property: inq},
		fakeInterface{path: "disk1", openErr: errors.New("access denied")},
		fakeInterface{pathErr: errors.New("path unavailable")},
		fakeInterface{path: "disk3", sizeErr: errors.New("not supported")},
		fakeInterface{path: "disk4", size: enumerate.MaxBufferSize + 1},
		fakeInterface{path: "disk5", size: len(inq), propErr: errors.New("io error")},
		fakeInterface{path: "disk6", size: 0},
	)

	list, err := enumerate.New(p, nil).Enumerate()
	require.NoError(t, err)
	require.Equal(t, []string{"disk0", "disk1", "disk3", "disk4", "disk5", "disk6"}, list.Paths())

	require.True(t, list[0].Opened())
	require.Equal(t, inq, list[0].Descriptor)
	require.Equal(t, len(inq), list[0].DescriptorSize)

	props, err := list[0].Properties()
	require.NoError(t, err)
	require.Equal(t, "ATA", props.Vendor)
	require.Equal(t, "Samsung SSD 870", props.Product)
	require.Equal(t, "2B6Q", props.Revision)
	require.False(t, props.Removable)

	size, err := list[0].Size()
	require.NoError(t, err)
	require.EqualValues(t, 4096, size)

	require.False(t, list[1].Opened())
	require.Nil(t, list[1].Descriptor)
	_, err = list[1].Size()
	require.Error(t, err)

	for _, d := range list[2:] {
		require.True(t, d.Opened(), d.Path)
		require.Nil(t, d.Descriptor, d.Path)
		require.Zero(t, d.DescriptorSize, d.Path)
		_, err := d.Properties()
		require.Error(t, err)
	}

	require.Len(t, p.opened, 5)
	require.NoError(t, list.Close())
	for _, d := range p.opened {
		require.True(t, d.Closed())
	}
	require.Nil(t, list[0].Handle)
	require.Nil(t, list[0].Descriptor)
}

func TestEnumerateNoDevices(t *testing.T) {
	list, err := enumerate.New(newPlatform(), nil).Enumerate()
	require.ErrorIs(t, err, disk.ErrNoDevicesFound)
	require.Nil(t, list)
}

func TestEnumerateServiceFailure(t *testing.T) {
	p := newPlatform(fakeInterface{path: "disk0"})
	p.interfacesErr = errors.New("cfgmgr unavailable")
	_, err := enumerate.New(p, nil).Enumerate()
	require.ErrorIs(t, err, disk.ErrGetDiskCountFailed)
	require.ErrorContains(t, err, "cfgmgr unavailable")
}

func TestEnumerateCountFailure(t *testing.T) {
	p := newPlatform(fakeInterface{path: "disk0"}, fakeInterface{path: "disk1"})
	p.failNextAt = 1
	p.failPass = 0
	_, err := enumerate.New(p, nil).Enumerate()
	require.ErrorIs(t, err, disk.ErrGetDiskCountFailed)
	require.Empty(t, p.opened)
}

func TestEnumerateCleanupOnFailure(t *testing.T) {
	p := newPlatform(fakeInterface{path: "disk0"}, fakeInterface{path: "disk1"}, fakeInterface{path: "disk2"})
	p.failNextAt = 2
	p.failPass = 1

	list, err := enumerate.New(p, nil).Enumerate()
	require.ErrorIs(t, err, disk.ErrGetDiskCountFailed)
	require.Nil(t, list)
	require.Len(t, p.opened, 2)
	for _, d := range p.opened {
		require.True(t, d.Closed())
	}
}

func TestEnumerateNeverExceedsCount(t *testing.T) {
	p := newPlatform(fakeInterface{path: "disk0"}, fakeInterface{path: "disk1"})
	p.lateArrivals = []fakeInterface{{path: "hotplugged"}}

	list, err := enumerate.New(p, nil).Enumerate()
	require.NoError(t, err)
	require.Equal(t, []string{"disk0", "disk1"}, list.Paths())
	require.NoError(t, list.Close())
}

func TestDecodeStorageDescriptor(t *testing.T) {
	b := make([]byte, 80)
	binary.LittleEndian.PutUint32(b[4:], 80)
	b[10] = 1
	binary.LittleEndian.PutUint32(b[12:], 36)
	binary.LittleEndian.PutUint32(b[16:], 41)
	binary.LittleEndian.PutUint32(b[20:], 0)
	binary.LittleEndian.PutUint32(b[24:], 54)
	binary.LittleEndian.PutUint32(b[28:], 7)
	copy(b[36:], "WDC\x00")
	copy(b[41:], "My Passport\x00")
	copy(b[54:], " 12345678 \x00")

	props, err := enumerate.Decode(enumerate.FormatStorageDevice, b)
	require.NoError(t, err)
	require.Equal(t, enumerate.Properties{
		Vendor:    "WDC",
		Product:   "My Passport",
		Serial:    "12345678",
		Bus:       "USB",
		Removable: true,
	}, props)
	require.Equal(t, "WDC My Passport", props.Model())

	size, err := enumerate.StorageDescriptorSize(b[:8])
	require.NoError(t, err)
	require.Equal(t, 80, size)

	_, err = enumerate.DecodeStorageDescriptor(b[:20])
	require.Error(t, err)

	binary.LittleEndian.PutUint32(b[12:], 1000)
	props, err = enumerate.DecodeStorageDescriptor(b)
	require.NoError(t, err)
	require.Empty(t, props.Vendor)
}

func TestDecodeInquiry(t *testing.T) {
	props, err := enumerate.DecodeInquiry(inquiryData("Kingston", "DataTraveler 3.0", "PMAP", true))
	require.NoError(t, err)
	require.Equal(t, "Kingston", props.Vendor)
	require.Equal(t, "DataTraveler 3.0", props.Product)
	require.Equal(t, "PMAP", props.Revision)
	require.True(t, props.Removable)

	short := inquiryData("QEMU", "QEMU HARDDISK", "2.5+", false)[:20]
	props, err = enumerate.DecodeInquiry(short)
	require.NoError(t, err)
	require.Equal(t, "QEMU", props.Vendor)
	require.Equal(t, "QEMU", props.Product)
	require.Empty(t, props.Revision)

	n, err := enumerate.InquiryLength([]byte{0, 0, 5, 2, 91})
	require.NoError(t, err)
	require.Equal(t, 96, n)

	_, err = enumerate.DecodeInquiry([]byte{0, 0})
	require.Error(t, err)
}
