// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gpx writes GPX 1.1 track and waypoint files incrementally.
//
// Writers emit the closing footer from Close, which is idempotent; callers
// defer Close so a file is terminated on every exit path.
package gpx

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header starts every GPX document.
const Header = "<?xml version=\"1.0\" encoding=\"UTF-8\" ?>\n" +
	"<gpx xmlns=\"http://www.topografix.com/GPX/1/1\" version=\"1.1\">\n"

const (
	segmentEnd     = "</trkseg>"
	trackFooter    = segmentEnd + "</trk></gpx>"
	waypointFooter = "</gpx>"
)

// document is the shared header/footer handling of both writers.
type document struct {
	bw     *bufio.Writer
	closer io.Closer
	footer string
	closed bool
}

func newDocument(w io.Writer, footer string) *document {
	d := &document{bw: bufio.NewWriter(w), footer: footer}
	if c, ok := w.(io.Closer); ok {
		d.closer = c
	}
	return d
}

func (d *document) close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	_, err := d.bw.WriteString(d.footer)
	if ferr := d.bw.Flush(); err == nil {
		err = ferr
	}
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// TrackWriter writes a single <trk> with one <trkseg>.
type TrackWriter struct {
	doc    *document
	name   string
	points int
}

// NewTrackWriter writes the header and opens a track called name. If w is
// an io.Closer it is closed by Close.
func NewTrackWriter(w io.Writer, name string) (*TrackWriter, error) {
	t := &TrackWriter{doc: newDocument(w, trackFooter), name: name}
	if _, err := t.doc.bw.WriteString(Header + "<trk><name>" + escape(name) + "</name><trkseg>"); err != nil {
		return nil, err
	}
	return t, nil
}

// ResumeTrackWriter continues a track file written earlier by a
// TrackWriter. w must be positioned right after the last </trkseg>; a new
// segment is opened there and Close writes the usual footer.
func ResumeTrackWriter(w io.Writer, name string) (*TrackWriter, error) {
	t := &TrackWriter{doc: newDocument(w, trackFooter), name: name}
	if _, err := t.doc.bw.WriteString("<trkseg>"); err != nil {
		return nil, err
	}
	return t, nil
}

// WritePoint appends a <trkpt>. timestamp must already be in
// YYYY-MM-DDThh:mm:ssZ form.
func (t *TrackWriter) WritePoint(lat, lon float64, timestamp string) error {
	if t.doc.closed {
		return fmt.Errorf("gpx: track %s already closed", t.name)
	}
	_, err := fmt.Fprintf(t.doc.bw, "  <trkpt lat=\"%.6f\" lon=\"%.6f\"><time>%s</time></trkpt>\n",
		lat, lon, escape(timestamp))
	if err == nil {
		t.points++
	}
	return err
}

// Name returns the track name.
func (t *TrackWriter) Name() string { return t.name }

// Points returns the number of points written.
func (t *TrackWriter) Points() int { return t.points }

// Close writes the footer and closes the underlying writer.
func (t *TrackWriter) Close() error { return t.doc.close() }

// WaypointWriter writes a layer of <wpt> elements with OpenCPN scale
// extensions.
type WaypointWriter struct {
	doc       *document
	waypoints int
}

// NewWaypointWriter writes the header. If w is an io.Closer it is closed
// by Close.
func NewWaypointWriter(w io.Writer) (*WaypointWriter, error) {
	ww := &WaypointWriter{doc: newDocument(w, waypointFooter)}
	if _, err := ww.doc.bw.WriteString(Header); err != nil {
		return nil, err
	}
	return ww, nil
}

// Write appends one waypoint with symbol sym, shown from scale scaleMin.
func (ww *WaypointWriter) Write(lat, lon float64, sym string, scaleMin int) error {
	if ww.doc.closed {
		return fmt.Errorf("gpx: waypoint layer already closed")
	}
	_, err := fmt.Fprintf(ww.doc.bw,
		"  <wpt lat=\"%s\" lon=\"%s\"><sym>%s</sym><extensions>"+
			"<opencpn:scale_min_max UseScale=\"true\" ScaleMin=\"%d\" /></extensions></wpt>\n",
		formatCoord(lat), formatCoord(lon), escape(sym), scaleMin)
	if err == nil {
		ww.waypoints++
	}
	return err
}

// Waypoints returns the number of waypoints written.
func (ww *WaypointWriter) Waypoints() int { return ww.waypoints }

// Close writes the footer and closes the underlying writer.
func (ww *WaypointWriter) Close() error { return ww.doc.close() }

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
