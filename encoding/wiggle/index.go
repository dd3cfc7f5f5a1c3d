package wiggle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AllRegion is the reserved region name of the whole-track summary.
const AllRegion = "_all"

// ErrStaleIndex is returned by DecodeIndex when a persisted index lacks a
// requested custom field.
var ErrStaleIndex = errors.New("index lacks requested fields")

var errNoRegion = errors.New("data line before region declaration")

// Field is a custom aggregate maintained by an index in addition to the
// built-in statistics.
type Field struct {
	// Name is the key of the field in the index file. It must not clash
	// with the built-in keys.
	Name string
	// Parse decodes a persisted value. strconv.ParseFloat is used if nil.
	Parse func(string) (float64, error)
	// Init is the accumulator of a region without data.
	Init float64
	// Fold adds a record of span positions with value v to acc.
	Fold func(acc float64, v Value, span int) float64
}

func (f Field) parse(s string) (float64, error) {
	if f.Parse == nil {
		return strconv.ParseFloat(s, 64)
	}
	return f.Parse(s)
}

// Summary describes one region of a track, or the whole track. Statistics
// that are undefined (e.g. Min of a region without data, PosMin of a region
// without positive values) are NaN.
type Summary struct {
	// Start is the byte offset of the region's first declaration line, and
	// Stop the offset just past its last data line.
	Start, Stop int64
	Sum         float64
	Count       int64
	Min, Max    float64
	// PosMin is the smallest strictly positive value.
	PosMin float64
	// Custom holds the custom aggregates, keyed by field name.
	Custom map[string]float64
}

func newSummary(start, stop int64, fields []Field) *Summary {
	s := &Summary{
		Start:  start,
		Stop:   stop,
		Min:    math.NaN(),
		Max:    math.NaN(),
		PosMin: math.NaN(),
		Custom: make(map[string]float64, len(fields)),
	}
	for _, f := range fields {
		s.Custom[f.Name] = f.Init
	}
	return s
}

// add folds a record covering span positions into s. The value is counted
// span times without expanding the record.
func (s *Summary) add(v Value, span int, fields []Field) {
	x := v.Float64()
	s.Sum += x * float64(span)
	s.Count += int64(span)
	if math.IsNaN(s.Min) || x < s.Min {
		s.Min = x
	}
	if math.IsNaN(s.Max) || x > s.Max {
		s.Max = x
	}
	if x > 0 && (math.IsNaN(s.PosMin) || x < s.PosMin) {
		s.PosMin = x
	}
	for _, f := range fields {
		s.Custom[f.Name] = f.Fold(s.Custom[f.Name], v, span)
	}
}

// Index holds the summaries of a track, keyed by region name. The summary
// of the whole track is stored under AllRegion.
type Index struct {
	summaries map[string]*Summary
}

// Summary returns the summary of region, or nil.
func (idx *Index) Summary(region string) *Summary {
	return idx.summaries[region]
}

// All returns the whole-track summary.
func (idx *Index) All() *Summary {
	return idx.summaries[AllRegion]
}

// Regions returns the indexed region names in lexicographic order,
// excluding AllRegion.
func (idx *Index) Regions() []string {
	regions := make([]string, 0, len(idx.summaries))
	for name := range idx.summaries {
		if name != AllRegion {
			regions = append(regions, name)
		}
	}
	sort.Strings(regions)
	return regions
}

// indexBuilder accumulates an index from a forward pass over a track.
type indexBuilder struct {
	fields []Field
	idx    *Index
	all    *Summary
	cur    *Summary
}

func newIndexBuilder(fields []Field) *indexBuilder {
	all := newSummary(0, 0, fields)
	return &indexBuilder{
		fields: fields,
		idx:    &Index{summaries: map[string]*Summary{AllRegion: all}},
		all:    all,
	}
}

// region starts a block of region whose declaration occupies [start, stop).
// A region declared in several blocks keeps the offset of the first one.
func (b *indexBuilder) region(name string, start, stop int64) {
	if s, ok := b.idx.summaries[name]; ok {
		b.cur = s
		return
	}
	b.cur = newSummary(start, stop, b.fields)
	b.idx.summaries[name] = b.cur
	if stop > b.all.Stop {
		b.all.Stop = stop
	}
}

// data adds a record ending at byte offset stop. It returns false if no
// region has been declared yet.
func (b *indexBuilder) data(d Data, stop int64) bool {
	if b.cur == nil {
		return false
	}
	b.cur.add(d.Value, d.Span, b.fields)
	b.cur.Stop = stop
	b.all.add(d.Value, d.Span, b.fields)
	b.all.Stop = stop
	return true
}

// BuildIndex scans the track in r from the beginning and returns its index
// with the given custom fields.
func BuildIndex(r io.ReadSeeker, fields ...Field) (*Index, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &ReadError{Err: err}
	}
	var (
		br  = bufio.NewReader(r)
		p   = NewParser()
		b   = newIndexBuilder(fields)
		off int64
	)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			start := off
			off += int64(len(line))
			l, perr := p.Parse(line)
			if perr != nil {
				return nil, perr
			}
			switch l.Type {
			case LineRegion:
				b.region(l.Region, start, off)
			case LineData:
				if !b.data(l.Data, off) {
					return nil, &ParseError{Line: strings.TrimRight(line, "\r\n"), Err: errNoRegion}
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading track")
		}
	}
	return b.idx, nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Encode writes idx in the index file format: one line per region of
// comma-separated key=value fields. The custom fields are written after
// the built-in ones. Nothing is written if a region name contains ',' or
// '=', since such a name can not be decoded.
func (idx *Index) Encode(w io.Writer) error {
	names := append([]string{AllRegion}, idx.Regions()...)
	for _, name := range names {
		if strings.ContainsAny(name, ",=\n") {
			return errors.Errorf("region name %q can not be stored in an index", name)
		}
	}
	bw := bufio.NewWriter(w)
	for _, name := range names {
		s := idx.summaries[name]
		fmt.Fprintf(bw, "region=%s,start=%d,stop=%d,sum=%s,count=%d,min=%s,posmin=%s,max=%s",
			name, s.Start, s.Stop, formatFloat(s.Sum), s.Count,
			formatFloat(s.Min), formatFloat(s.PosMin), formatFloat(s.Max))
		custom := make([]string, 0, len(s.Custom))
		for key := range s.Custom {
			custom = append(custom, key)
		}
		sort.Strings(custom)
		for _, key := range custom {
			fmt.Fprintf(bw, ",%s=%s", key, formatFloat(s.Custom[key]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// DecodeIndex reads an index written by Encode. The order of lines and of
// fields within a line is not significant. It returns ErrStaleIndex if any
// of the given custom fields is missing.
func DecodeIndex(r io.Reader, fields ...Field) (*Index, error) {
	idx := &Index{summaries: map[string]*Summary{}}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		kv := map[string]string{}
		for _, field := range strings.Split(line, ",") {
			parts := strings.SplitN(field, "=", 2)
			if len(parts) != 2 {
				return nil, errors.Errorf("invalid index field %q", field)
			}
			kv[parts[0]] = parts[1]
		}
		name, ok := kv["region"]
		if !ok {
			return nil, errors.Errorf("index line without region: %q", line)
		}
		s, err := decodeSummary(kv, fields)
		if err == ErrStaleIndex {
			return nil, err
		}
		if err != nil {
			return nil, errors.Wrapf(err, "region %s", name)
		}
		idx.summaries[name] = s
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if idx.All() == nil {
		return nil, errors.Errorf("index lacks the %s summary", AllRegion)
	}
	return idx, nil
}

func decodeSummary(kv map[string]string, fields []Field) (*Summary, error) {
	s := newSummary(0, 0, fields)
	ints := []struct {
		key string
		dst *int64
	}{{"start", &s.Start}, {"stop", &s.Stop}, {"count", &s.Count}}
	for _, f := range ints {
		v, ok := kv[f.key]
		if !ok {
			return nil, errors.Errorf("missing field %s", f.key)
		}
		var err error
		if *f.dst, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, err
		}
	}
	floats := []struct {
		key string
		dst *float64
	}{{"sum", &s.Sum}, {"min", &s.Min}, {"posmin", &s.PosMin}, {"max", &s.Max}}
	for _, f := range floats {
		v, ok := kv[f.key]
		if !ok {
			return nil, errors.Errorf("missing field %s", f.key)
		}
		var err error
		if *f.dst, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, err
		}
	}
	for _, f := range fields {
		v, ok := kv[f.Name]
		if !ok {
			return nil, ErrStaleIndex
		}
		x, err := f.parse(v)
		if err != nil {
			return nil, err
		}
		s.Custom[f.Name] = x
	}
	return s, nil
}
