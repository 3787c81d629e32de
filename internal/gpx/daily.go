package gpx

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// DailyTracks partitions a time ordered stream of track points into one
// file per calendar day, named YYYY-MM-DD.gpx. Only one file is open at a
// time; a change of day closes it and opens the next.
//
// A day file that already holds a track, from an earlier log or an
// earlier run, is kept: the new points go into an extra <trkseg>.
type DailyTracks struct {
	dir    string
	create func(path string) (io.WriteCloser, error)
	reopen func(path string) (io.WriteCloser, bool, error)
	logger *slog.Logger

	cur   *TrackWriter
	day   string
	files []string
	seen  map[string]bool
}

// NewDailyTracks writes into dir.
func NewDailyTracks(dir string, logger *slog.Logger) *DailyTracks {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyTracks{
		dir:    dir,
		logger: logger,
		create: func(path string) (io.WriteCloser, error) { return os.Create(path) },
		reopen: openForAppend,
		seen:   make(map[string]bool),
	}
}

// Write appends a point to the file for day (YYYY-MM-DD), rotating files
// when the day changes.
func (d *DailyTracks) Write(day string, lat, lon float64, timestamp string) error {
	if d.cur != nil && day != d.day {
		if err := d.closeCurrent(); err != nil {
			return err
		}
	}
	if d.cur == nil {
		path := filepath.Join(d.dir, day+".gpx")
		tw, err := d.open(path, day)
		if err != nil {
			return err
		}
		d.cur, d.day = tw, day
		if !d.seen[path] {
			d.seen[path] = true
			d.files = append(d.files, path)
		}
	}
	return d.cur.WritePoint(lat, lon, timestamp)
}

func (d *DailyTracks) open(path, day string) (*TrackWriter, error) {
	f, ok, err := d.reopen(path)
	if err != nil {
		return nil, err
	}
	if ok {
		tw, err := ResumeTrackWriter(f, day)
		if err != nil {
			f.Close()
			return nil, err
		}
		d.logger.Info("appending to track file", "path", path)
		return tw, nil
	}

	f, err = d.create(path)
	if err != nil {
		return nil, err
	}
	tw, err := NewTrackWriter(f, day)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.logger.Info("generating track file", "path", path)
	return tw, nil
}

// openForAppend opens an existing track file and cuts it back to just
// after its last </trkseg>. ok is false when there is no file, or when
// the file does not end with a TrackWriter footer; such a file is then
// replaced.
func openForAppend(path string) (io.WriteCloser, bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fail := func(err error) (io.WriteCloser, bool, error) {
		f.Close()
		return nil, false, err
	}

	fi, err := f.Stat()
	if err != nil {
		return fail(err)
	}
	n := int64(len(trackFooter))
	if fi.Size() < int64(len(Header))+n {
		return fail(nil)
	}
	tail := make([]byte, n)
	if _, err := f.ReadAt(tail, fi.Size()-n); err != nil {
		return fail(err)
	}
	if string(tail) != trackFooter {
		return fail(nil)
	}

	keep := fi.Size() - n + int64(len(segmentEnd))
	if err := f.Truncate(keep); err != nil {
		return fail(err)
	}
	if _, err := f.Seek(keep, io.SeekStart); err != nil {
		return fail(err)
	}
	return f, true, nil
}

// Files returns the paths written so far, in order of first use.
func (d *DailyTracks) Files() []string { return d.files }

// Close terminates the open file, if any. It is safe to call repeatedly.
func (d *DailyTracks) Close() error {
	if d.cur == nil {
		return nil
	}
	return d.closeCurrent()
}

func (d *DailyTracks) closeCurrent() error {
	tw := d.cur
	d.cur, d.day = nil, ""
	err := tw.Close()
	d.logger.Info("track file closed", "track", tw.Name(), "trackpoints", tw.Points())
	return err
}
