// Package header parses the ASCII "H key:value\n" prologue that
// precedes every log's frame stream, producing per-frame-type schemas
// and a system-configuration record.
//
// Reference: blackbox-tools/src/parser.c (header-parsing half) via the
// pybox port's headers.py.
package header

import (
	"math"
	"strconv"
	"strings"

	"github.com/flightlog/blackbox/internal/bitstream"
	"github.com/flightlog/blackbox/internal/schema"
)

// Parse reads header lines from c for as long as the next byte is 'H',
// populating and returning a schema.Header. The cursor is left
// positioned at the first non-header byte.
func Parse(c *bitstream.Cursor) (*schema.Header, error) {
	h := schema.NewHeader()

	for !c.EOF() {
		peeked, ok := c.PeekByte()
		if !ok || peeked != 'H' {
			break
		}
		c.ReadByte()

		space, ok := c.ReadByte()
		if !ok || space != ' ' {
			break
		}

		var line []byte
		for {
			ch, ok := c.ReadByte()
			if !ok || ch == '\n' || ch == 0 {
				break
			}
			line = append(line, ch)
		}

		parseLine(h, string(line))
	}

	rewriteDuplicateHomeCoordPredictors(h)

	if def := h.FrameDefs['I']; def == nil || def.FieldCount == 0 {
		return h, ErrMissingIFrameSchema
	}
	return h, nil
}

// rewriteDuplicateHomeCoordPredictors finds two consecutive HOME_COORD
// predictors in the G-frame schema and rewrites the second to
// HOME_COORD_1, so it reads gps_home_idx[1] instead of gps_home_idx[0].
func rewriteDuplicateHomeCoordPredictors(h *schema.Header) {
	gDef := h.FrameDefs['G']
	if gDef == nil {
		return
	}
	for i := 1; i < gDef.FieldCount; i++ {
		if gDef.Predictor[i-1] == schema.PredictorHomeCoord && gDef.Predictor[i] == schema.PredictorHomeCoord {
			gDef.Predictor[i] = schema.PredictorHomeCoord1
		}
	}
}

func parseLine(h *schema.Header, line string) {
	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return
	}
	key := strings.TrimSpace(line[:colon])
	value := strings.TrimSpace(line[colon+1:])

	h.Raw[key] = value
	h.RawPairs = append(h.RawPairs, schema.HeaderPair{Key: key, Value: value})

	switch {
	case strings.HasPrefix(key, "Field "):
		parseFieldLine(h, key, value)
	case key == "I interval":
		if n, err := strconv.Atoi(value); err == nil {
			if n < 1 {
				n = 1
			}
			h.FrameIntervalI = n
		}
	case key == "P interval":
		if num, denom, ok := splitRatio(value); ok {
			h.FrameIntervalPNum = num
			h.FrameIntervalPDenom = denom
		}
	case key == "Data version":
		if n, err := strconv.Atoi(value); err == nil {
			h.DataVersion = n
		}
	case key == "Firmware type":
		if value == "Cleanflight" {
			h.SysConfig.FirmwareType = schema.FirmwareCleanflight
		} else {
			h.SysConfig.FirmwareType = schema.FirmwareBaseflight
		}
	case key == "Firmware revision":
		h.FirmwareRevision = value
		parts := strings.SplitN(value, " ", 2)
		if len(parts) == 2 && parts[0] == "Betaflight" {
			h.FCVersion = parts[1]
			h.SysConfig.FirmwareType = schema.FirmwareBetaflight
		}
	case key == "minthrottle":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.Minthrottle = n
			h.SysConfig.MotorOutputLow = n
		}
	case key == "maxthrottle":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.Maxthrottle = n
			h.SysConfig.MotorOutputHigh = n
		}
	case key == "rcRate":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.RCRate = n
		}
	case key == "vbatscale":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.VBatScale = n
		}
	case key == "vbatref":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.VBatRef = n
		}
	case key == "vbatcellvoltage":
		if vals := parseCSVInts(value); len(vals) >= 3 {
			h.SysConfig.VBatMinCellVolt = vals[0]
			h.SysConfig.VBatWarnCellVolt = vals[1]
			h.SysConfig.VBatMaxCellVolt = vals[2]
		}
	case key == "currentMeter":
		if vals := parseCSVInts(value); len(vals) >= 2 {
			h.SysConfig.CurrentMeterOff = vals[0]
			h.SysConfig.CurrentMeterScl = vals[1]
		}
	case key == "gyro.scale" || key == "gyro_scale":
		gyroScale := float32(1.0)
		hexValue := strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
		if raw, err := strconv.ParseUint(hexValue, 16, 32); err == nil {
			gyroScale = math.Float32frombits(uint32(raw))
		}
		if h.SysConfig.FirmwareType != schema.FirmwareBaseflight {
			gyroScale = gyroScale * float32(math.Pi/180.0) * 0.000001
		}
		h.SysConfig.GyroScale = gyroScale
	case key == "acc_1G":
		if n, err := strconv.Atoi(value); err == nil {
			h.SysConfig.Acc1G = n
		}
	case key == "motorOutput":
		if vals := parseCSVInts(value); len(vals) >= 2 {
			h.SysConfig.MotorOutputLow = vals[0]
			h.SysConfig.MotorOutputHigh = vals[1]
		}
	case strings.HasPrefix(key, "Log start datetime"):
		h.LogStartDatetime = value
	}
}

func parseFieldLine(h *schema.Header, key, value string) {
	rest := strings.TrimPrefix(key, "Field ")
	if rest == "" {
		return
	}
	frameChar := rest[0]
	frameType := byte(frameChar)
	def := getOrCreateSchema(h, frameType)

	switch {
	case strings.HasSuffix(key, " name"):
		names := parseFieldNames(value)
		def.Names = names
		def.FieldCount = len(names)

		switch frameChar {
		case 'I':
			identifyMainFields(h.MainFieldIndexes, def)
			pDef := getOrCreateSchema(h, 'P')
			pDef.Names = append([]string(nil), def.Names...)
			pDef.FieldCount = def.FieldCount
		case 'G':
			identifyGPSFields(h.GPSFieldIndexes, def)
		case 'H':
			identifyGPSHomeFields(h.GPSHomeFieldIndexes, def)
		case 'S':
			identifySlowFields(h.SlowFieldIndexes, def)
		}

	case strings.HasSuffix(key, " signed"):
		ints := parseCSVInts(value)
		for j, v := range ints {
			def.Signed[j] = v
		}
		if frameChar == 'I' {
			pDef := getOrCreateSchema(h, 'P')
			for j, v := range ints {
				pDef.Signed[j] = v
			}
		}

	case strings.HasSuffix(key, " predictor"):
		ints := parseCSVInts(value)
		for j, v := range ints {
			def.Predictor[j] = schema.Predictor(v)
		}

	case strings.HasSuffix(key, " encoding"):
		ints := parseCSVInts(value)
		for j, v := range ints {
			def.Encoding[j] = schema.Encoding(v)
		}

	case strings.HasSuffix(key, " width"):
		ints := parseCSVInts(value)
		for j, v := range ints {
			def.Width[j] = v
		}
	}
}

func getOrCreateSchema(h *schema.Header, frameType byte) *schema.Schema {
	if def, ok := h.FrameDefs[frameType]; ok {
		return def
	}
	def := schema.NewSchema()
	h.FrameDefs[frameType] = def
	return def
}

func parseFieldNames(value string) []string {
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseCSVInts(value string) []int {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}

func splitRatio(value string) (num, denom int, ok bool) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	n, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, d, true
}
