package blackbox

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/flightlog/blackbox/internal/bitstream"
	"github.com/flightlog/blackbox/internal/frame"
	"github.com/flightlog/blackbox/internal/header"
	"github.com/flightlog/blackbox/internal/schema"
)

// logSpan is one log's byte window within the source buffer.
type logSpan struct {
	start, end int
}

// File is a parsed view over a byte buffer containing one or more
// concatenated blackbox logs. Opening a File only discovers log
// boundaries; headers and frame streams are parsed lazily per log.
type File struct {
	data []byte
	logs []logSpan
	opts options
}

// Open scans data for log-start markers and returns a File addressing
// each discovered log. data is retained, not copied; the caller must
// not mutate it for the lifetime of the File.
func Open(data []byte, opts ...Option) (*File, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	marker := []byte(schema.LogStartMarker)
	var starts []int
	for offset := 0; ; {
		i := bytes.Index(data[offset:], marker)
		if i < 0 {
			break
		}
		starts = append(starts, offset+i)
		offset += i + len(marker)
	}

	logs := make([]logSpan, len(starts))
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		logs[i] = logSpan{start: s, end: end}
	}

	o.logger.Debug("blackbox: logs discovered", zap.Int("count", len(logs)))
	return &File{data: data, logs: logs, opts: *o}, nil
}

// LogCount returns the number of logs discovered in the buffer.
func (f *File) LogCount() int { return len(f.logs) }

func (f *File) span(i int) (logSpan, error) {
	if i < 0 || i >= len(f.logs) {
		return logSpan{}, errors.Wrapf(ErrLogIndexOutOfRange, "index %d, have %d logs", i, len(f.logs))
	}
	return f.logs[i], nil
}

// Header parses and returns just log i's header, without decoding its
// frame stream.
func (f *File) Header(i int) (*schema.Header, error) {
	span, err := f.span(i)
	if err != nil {
		return nil, err
	}
	c := bitstream.NewCursor(f.data, span.start, span.end)
	h, err := header.Parse(c)
	if err != nil {
		return nil, errors.Wrapf(err, "blackbox: log %d", i)
	}
	return h, nil
}

// FrameTypeStats accumulates a decoded log's per-frame-type byte and
// frame counts.
type FrameTypeStats = frame.FrameTypeStats

// Event is a decoded 'E' frame.
type Event = frame.Event

// PositionedRow pairs a last-seen auxiliary row (GPS, GPS-home, or slow
// telemetry) with the index into DecodedLog.Rows it was current at.
type PositionedRow struct {
	AtRow  int
	Values []int64
}

// DecodedLog is the full decode result for one log: its header, the
// committed main-row table, the auxiliary frame sequences, events, and
// the frame-type/corruption counters recorded while decoding.
type DecodedLog struct {
	Header *schema.Header

	ColumnNames []string
	Rows        [][]int64

	GPSRows     []PositionedRow
	GPSHomeRows []PositionedRow
	SlowRows    []PositionedRow

	Events []Event

	FrameStats map[byte]*FrameTypeStats

	// HomeValid is latched true on the first committed H-frame.
	HomeValid bool

	ValidFrameCount   int
	CorruptFrameCount int
}

// Degraded reports whether the decode is considered low-quality: the
// corrupt-frame count exceeds 5% of all accounted-for main frames.
func (d *DecodedLog) Degraded() bool {
	total := d.ValidFrameCount + d.CorruptFrameCount
	if total == 0 {
		return false
	}
	return float64(d.CorruptFrameCount) > 0.05*float64(total)
}

// Decode parses log i's header and drives its frame stream to
// completion, producing a DecodedLog. In raw mode every predictor except
// INC is treated as ZERO, exposing the undecoded scalar reconstructions;
// INC still counts loop iterations from the previous row.
func (f *File) Decode(i int, raw bool) (*DecodedLog, error) {
	span, err := f.span(i)
	if err != nil {
		return nil, err
	}

	c := bitstream.NewCursor(f.data, span.start, span.end)
	h, err := header.Parse(c)
	if err != nil {
		return nil, errors.Wrapf(err, "blackbox: log %d", i)
	}

	fp := frame.NewParser(h, f.opts.logger)
	d := &DecodedLog{
		Header:      h,
		ColumnNames: h.FrameDefs['I'].Names,
		FrameStats:  fp.FrameStats,
	}

	gCount, hCount, sCount := frameFieldCount(h, 'G'), frameFieldCount(h, 'H'), frameFieldCount(h, 'S')

	for c.Pos() < c.End() {
		tag, ok := c.PeekByte()
		if !ok {
			break
		}

		switch tag {
		case 'I':
			c.ReadByte()
			if fp.ParseIntraframe(c, raw) {
				d.ValidFrameCount++
				d.Rows = append(d.Rows, copyRow(fp.CommittedMainRow(), len(d.ColumnNames)))
			} else {
				d.CorruptFrameCount++
			}

		case 'P':
			c.ReadByte()
			if fp.ParseInterframe(c, raw) {
				d.ValidFrameCount++
				d.Rows = append(d.Rows, copyRow(fp.CommittedMainRow(), len(d.ColumnNames)))
			} else {
				d.CorruptFrameCount++
			}

		case 'G':
			c.ReadByte()
			fp.ParseGPSFrame(c, raw)
			d.GPSRows = append(d.GPSRows, PositionedRow{AtRow: len(d.Rows), Values: copyRow(fp.LastGPSRow(), gCount)})

		case 'H':
			c.ReadByte()
			fp.ParseGPSHomeFrame(c, raw)
			d.HomeValid = fp.GPSHomeValid()
			d.GPSHomeRows = append(d.GPSHomeRows, PositionedRow{AtRow: len(d.Rows), Values: copyRow(fp.LastGPSHomeRow(), hCount)})

		case 'S':
			c.ReadByte()
			fp.ParseSlowFrame(c, raw)
			d.SlowRows = append(d.SlowRows, PositionedRow{AtRow: len(d.Rows), Values: copyRow(fp.LastSlowRow(), sCount)})

		case 'E':
			c.ReadByte()
			event := fp.ParseEventFrame(c)
			d.Events = append(d.Events, event)

		default:
			c.ReadByte()
			fp.Resync()
			d.CorruptFrameCount++
			f.opts.logger.Debug("blackbox: unrecognised frame tag, resyncing", zap.Int("log", i), zap.Uint8("tag", tag))
		}
	}

	return d, nil
}

// DecodeAll decodes every log in f concurrently; logs are independent
// (the frame parser's state is exclusive to one log), so decoding them
// in parallel across distinct goroutines is safe. Results are returned
// in log order; a per-log error does not abort the others.
func (f *File) DecodeAll(raw bool) ([]*DecodedLog, error) {
	results := make([]*DecodedLog, len(f.logs))
	errs := make([]error, len(f.logs))

	done := make(chan int, len(f.logs))
	for i := range f.logs {
		go func(i int) {
			results[i], errs[i] = f.Decode(i, raw)
			done <- i
		}(i)
	}
	for range f.logs {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func frameFieldCount(h *schema.Header, frameType byte) int {
	def := h.FrameDefs[frameType]
	if def == nil {
		return 0
	}
	return def.FieldCount
}

func copyRow(row *[schema.MaxFields]int64, n int) []int64 {
	if row == nil || n <= 0 {
		return nil
	}
	out := make([]int64, n)
	copy(out, row[:n])
	return out
}
