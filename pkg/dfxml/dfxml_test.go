package dfxml_test

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/ostafen/diskprobe/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func TestWriterProducesSingleRoot(t *testing.T) {
	var buf bytes.Buffer
	w := dfxml.NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator:   dfxml.Creator{Package: "pkg", Version: "1", ExecutionEnvironment: dfxml.GetExecEnv()},
		Source:    dfxml.Source{ImageFilename: "img", SectorSize: 512, ImageSize: 1024},
	}))
	require.NoError(t, w.WriteVolume(dfxml.Volume{
		Offset:   512,
		Filename: "01-a.img",
		ByteRuns: dfxml.ByteRuns{Runs: []dfxml.ByteRun{{ImgOffset: 512, Length: 100}, {Offset: 100, ImgOffset: 1024, Length: 28}}},
	}))
	require.NoError(t, w.Close())

	require.Equal(t, 1, strings.Count(buf.String(), "<dfxml"))
	require.Contains(t, buf.String(), `xmloutputversion="1.0"`)

	var root struct {
		XMLName xml.Name `xml:"dfxml"`
		Source  dfxml.Source   `xml:"source"`
		Volumes []dfxml.Volume `xml:"volume"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &root))
	require.Equal(t, "img", root.Source.ImageFilename)
	require.Len(t, root.Volumes, 1)

	vols, err := dfxml.ReadVolumes(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, vols, 1)
	require.Equal(t, "01-a.img", vols[0].Filename)
	require.Equal(t, uint64(128), vols[0].Size())
}

func TestReadVolumesMalformed(t *testing.T) {
	_, err := dfxml.ReadVolumes(strings.NewReader("<dfxml><volume><filename>x</volume>"))
	require.Error(t, err)

	vols, err := dfxml.ReadVolumes(strings.NewReader("<dfxml></dfxml>"))
	require.NoError(t, err)
	require.Empty(t, vols)
}
