package gpx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct {
	*bytes.Buffer
	closed int
}

func (n *nopCloser) Close() error {
	n.closed++
	return nil
}

func TestTrackWriter(t *testing.T) {
	buf := &nopCloser{Buffer: &bytes.Buffer{}}
	tw, err := NewTrackWriter(buf, "2023-02-13")
	require.NoError(t, err)
	require.NoError(t, tw.WritePoint(53.205, 5.335, "2023-02-13T06:00:09Z"))
	require.NoError(t, tw.Close())
	require.NoError(t, tw.Close())

	want := Header +
		"<trk><name>2023-02-13</name><trkseg>" +
		"  <trkpt lat=\"53.205000\" lon=\"5.335000\"><time>2023-02-13T06:00:09Z</time></trkpt>\n" +
		"</trkseg></trk></gpx>"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 1, buf.closed, "underlying writer closed exactly once")
	assert.Equal(t, 1, tw.Points())
	assert.Error(t, tw.WritePoint(1, 1, "x"))
}

func TestWaypointWriter(t *testing.T) {
	var buf bytes.Buffer
	ww, err := NewWaypointWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, ww.Write(53.1, 5.25, "depth_2-3", 800))
	require.NoError(t, ww.Close())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, Header))
	assert.Contains(t, out, `<wpt lat="53.1" lon="5.25"><sym>depth_2-3</sym>`)
	assert.Contains(t, out, `<opencpn:scale_min_max UseScale="true" ScaleMin="800" />`)
	assert.True(t, strings.HasSuffix(out, "</wpt>\n</gpx>"))
	assert.Equal(t, 1, ww.Waypoints())
}

func TestDailyTracks_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyTracks(dir, nil)

	require.NoError(t, d.Write("2023-02-13", 53.1, 5.1, "2023-02-13T23:59:00Z"))
	require.NoError(t, d.Write("2023-02-13", 53.2, 5.2, "2023-02-13T23:59:30Z"))
	require.NoError(t, d.Write("2023-02-14", 53.3, 5.3, "2023-02-14T00:00:10Z"))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	require.Equal(t, []string{
		filepath.Join(dir, "2023-02-13.gpx"),
		filepath.Join(dir, "2023-02-14.gpx"),
	}, d.Files())

	first, err := os.ReadFile(d.Files()[0])
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(first), "<trkpt"))
	assert.True(t, strings.HasSuffix(string(first), "</trkseg></trk></gpx>"))

	second, err := os.ReadFile(d.Files()[1])
	require.NoError(t, err)
	assert.Contains(t, string(second), "<name>2023-02-14</name>")
	assert.Equal(t, 1, strings.Count(string(second), "<trkpt"))
}

func TestDailyTracks_FooterOnErrorPath(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyTracks(dir, nil)

	run := func() error {
		defer d.Close()
		if err := d.Write("2023-02-13", 53.1, 5.1, "2023-02-13T10:00:00Z"); err != nil {
			return err
		}
		return errors.New("pass aborted")
	}
	require.Error(t, run())

	b, err := os.ReadFile(filepath.Join(dir, "2023-02-13.gpx"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "</trkseg></trk></gpx>"))
}

func TestDailyTracks_CreateFailure(t *testing.T) {
	d := NewDailyTracks(t.TempDir(), nil)
	d.create = func(string) (io.WriteCloser, error) { return nil, os.ErrPermission }
	err := d.Write("2023-02-13", 1, 1, "2023-02-13T00:00:00Z")
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Empty(t, d.Files())
}

func TestDailyTracks_AppendsSegmentToExistingDay(t *testing.T) {
	dir := t.TempDir()

	morning := NewDailyTracks(dir, nil)
	require.NoError(t, morning.Write("2023-02-13", 53.1, 5.1, "2023-02-13T08:00:00Z"))
	require.NoError(t, morning.Write("2023-02-13", 53.2, 5.2, "2023-02-13T08:00:30Z"))
	require.NoError(t, morning.Close())

	afternoon := NewDailyTracks(dir, nil)
	require.NoError(t, afternoon.Write("2023-02-13", 53.3, 5.3, "2023-02-13T14:01:00Z"))
	require.NoError(t, afternoon.Close())

	b, err := os.ReadFile(filepath.Join(dir, "2023-02-13.gpx"))
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.HasPrefix(out, Header))
	assert.True(t, strings.HasSuffix(out, "</trkseg></trk></gpx>"))
	assert.Equal(t, 1, strings.Count(out, "<trk>"))
	assert.Equal(t, 2, strings.Count(out, "<trkseg>"))
	assert.Equal(t, 2, strings.Count(out, "</trkseg>"))
	assert.Equal(t, 3, strings.Count(out, "<trkpt"))
	assert.Contains(t, out, "2023-02-13T08:00:00Z")
	assert.Contains(t, out, "2023-02-13T14:01:00Z")
}

func TestDailyTracks_ReturnToEarlierDay(t *testing.T) {
	dir := t.TempDir()
	d := NewDailyTracks(dir, nil)
	require.NoError(t, d.Write("2023-02-13", 53.1, 5.1, "2023-02-13T23:59:00Z"))
	require.NoError(t, d.Write("2023-02-14", 53.2, 5.2, "2023-02-14T00:01:00Z"))
	require.NoError(t, d.Write("2023-02-13", 53.3, 5.3, "2023-02-13T12:00:00Z"))
	require.NoError(t, d.Close())

	assert.Equal(t, []string{
		filepath.Join(dir, "2023-02-13.gpx"),
		filepath.Join(dir, "2023-02-14.gpx"),
	}, d.Files())

	b, err := os.ReadFile(filepath.Join(dir, "2023-02-13.gpx"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "<trkpt"))
}

func TestDailyTracks_ReplacesForeignFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2023-02-13.gpx")
	require.NoError(t, os.WriteFile(path, []byte("not a track"), 0o644))

	d := NewDailyTracks(dir, nil)
	require.NoError(t, d.Write("2023-02-13", 53.1, 5.1, "2023-02-13T08:00:00Z"))
	require.NoError(t, d.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), Header))
	assert.Equal(t, 1, strings.Count(string(b), "<trkseg>"))
}

func TestResumeTrackWriter(t *testing.T) {
	var buf bytes.Buffer
	tw, err := ResumeTrackWriter(&buf, "2023-02-13")
	require.NoError(t, err)
	require.NoError(t, tw.WritePoint(53.205, 5.335, "2023-02-13T14:00:00Z"))
	require.NoError(t, tw.Close())

	assert.Equal(t, "<trkseg>"+
		"  <trkpt lat=\"53.205000\" lon=\"5.335000\"><time>2023-02-13T14:00:00Z</time></trkpt>\n"+
		"</trkseg></trk></gpx>", buf.String())
}
