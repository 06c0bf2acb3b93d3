// Package schema holds the shared data types produced by the header
// parser and consumed by the frame parser: per-frame-type field
// schemas, well-known field-index tables, and system configuration.
//
// Reference: blackbox-tools/src/blackbox_fielddefs.h and parser.h.
package schema

// Limits mirrored from the frame-field layout of the source format.
const (
	MaxFields      = 128
	MaxFrameLength = 256

	FieldIndexIteration = 0
	FieldIndexTime      = 1

	MaxTimeJump = 10 * 1000 * 1000 // microseconds
	MaxIterJump = 5000
)

// LogStartMarker prefixes every log embedded in a Blackbox file.
const LogStartMarker = "H Product:Blackbox flight data recorder by Nicholas Sherlock\n"

// FirmwareType identifies which flight-controller firmware family wrote
// the log, which affects one gyro-scale unit conversion.
type FirmwareType int

const (
	FirmwareUnknown FirmwareType = iota
	FirmwareBaseflight
	FirmwareCleanflight
	FirmwareBetaflight
)

// Predictor is a per-field rule describing what value is added to a
// decoded raw scalar to reconstruct the final value.
type Predictor int

const (
	PredictorZero Predictor = iota
	PredictorPrevious
	PredictorStraightLine
	PredictorAverage2
	PredictorMinthrottle
	PredictorMotor0
	PredictorInc
	PredictorHomeCoord
	PredictorFifteenHundred
	PredictorVBatRef
	PredictorLastMainFrameTime
	PredictorMinMotor
	// PredictorHomeCoord1 is never present in a header's raw predictor
	// list; the header parser rewrites it in from PredictorHomeCoord
	// when two GPS-home predictors appear back to back.
	PredictorHomeCoord1 Predictor = 256
)

// Encoding is the per-field byte/bit layout used to transmit a raw
// scalar before prediction is applied.
type Encoding int

const (
	EncodingSignedVB Encoding = iota
	EncodingUnsignedVB
	_ // 2 is unused by the source format
	EncodingNeg14Bit
	EncodingEliasDeltaU32
	EncodingEliasDeltaS32
	EncodingTag8_8SVB
	EncodingTag2_3S32
	EncodingTag8_4S16
	EncodingNull
	EncodingEliasGammaU32
	EncodingEliasGammaS32
)

// Event type tags carried by the single byte following an 'E' frame tag.
const (
	EventSyncBeep           = 0
	EventInflightAdjustment = 13
	EventLoggingResume      = 14
	EventFlightMode         = 30
	EventLogEnd             = 255
)

// Schema describes the fields of one frame type (I, P, G, H, or S), in
// declaration order. Names and the four per-field arrays share
// FieldCount as their valid length; the arrays are sized to MaxFields so a schema can be
// reused across header-parse mutations without reallocation.
type Schema struct {
	Names      []string
	FieldCount int
	Signed     [MaxFields]int
	Width      [MaxFields]int
	Predictor  [MaxFields]Predictor
	Encoding   [MaxFields]Encoding
}

// NewSchema returns a Schema with every width defaulted to 4, matching
// the source format's default field width before a header overrides it.
func NewSchema() *Schema {
	s := &Schema{}
	for i := range s.Width {
		s.Width[i] = 4
	}
	return s
}

// SysConfig carries header-derived constants read by predictors and
// exposed to external callers as the format's tunable parameters.
type SysConfig struct {
	Minthrottle      int
	Maxthrottle      int
	MotorOutputLow   int
	MotorOutputHigh  int
	RCRate           int
	YawRate          int
	Acc1G            int
	GyroScale        float32
	VBatScale        int
	VBatMaxCellVolt  int
	VBatMinCellVolt  int
	VBatWarnCellVolt int
	CurrentMeterOff  int
	CurrentMeterScl  int
	VBatRef          int
	FirmwareType     FirmwareType
}

// NewSysConfig returns a SysConfig pre-populated with the source
// format's hard-coded defaults, overridden as header lines arrive.
func NewSysConfig() *SysConfig {
	return &SysConfig{
		Minthrottle:      1150,
		Maxthrottle:      1850,
		MotorOutputLow:   1150,
		MotorOutputHigh:  1850,
		RCRate:           90,
		Acc1G:            1,
		GyroScale:        1.0,
		VBatScale:        110,
		VBatMaxCellVolt:  43,
		VBatMinCellVolt:  33,
		VBatWarnCellVolt: 35,
		CurrentMeterScl:  400,
		VBatRef:          4095,
	}
}

// MainFieldIndexes gives the positions of well-known fields within the
// I/P frame schema. -1 means the field is absent from this log.
type MainFieldIndexes struct {
	LoopIteration int
	Time          int
	PID           [3][3]int // [P|I|D][axis]
	RCCommand     [4]int
	VBatLatest    int
	AmperageLatest int
	MagADC        [3]int
	BaroAlt       int
	SonarRaw      int
	RSSI          int
	GyroADC       [3]int
	AccSmooth     [3]int
	Motor         [8]int
	Servo         [8]int
}

// NewMainFieldIndexes returns all indexes set to -1 (absent).
func NewMainFieldIndexes() *MainFieldIndexes {
	idx := &MainFieldIndexes{LoopIteration: -1, Time: -1, VBatLatest: -1,
		AmperageLatest: -1, BaroAlt: -1, SonarRaw: -1, RSSI: -1}
	for i := range idx.PID {
		for j := range idx.PID[i] {
			idx.PID[i][j] = -1
		}
	}
	for i := range idx.RCCommand {
		idx.RCCommand[i] = -1
	}
	for i := range idx.MagADC {
		idx.MagADC[i] = -1
	}
	for i := range idx.GyroADC {
		idx.GyroADC[i] = -1
	}
	for i := range idx.AccSmooth {
		idx.AccSmooth[i] = -1
	}
	for i := range idx.Motor {
		idx.Motor[i] = -1
	}
	for i := range idx.Servo {
		idx.Servo[i] = -1
	}
	return idx
}

// GPSFieldIndexes gives the positions of well-known fields within the G
// frame schema.
type GPSFieldIndexes struct {
	Time             int
	NumSat           int
	Coord            [2]int
	Altitude         int
	Speed            int
	GroundCourse     int
}

func NewGPSFieldIndexes() *GPSFieldIndexes {
	return &GPSFieldIndexes{Time: -1, NumSat: -1, Coord: [2]int{-1, -1}, Altitude: -1, Speed: -1, GroundCourse: -1}
}

// GPSHomeFieldIndexes gives the positions of the two home-coordinate
// fields within the H frame schema.
type GPSHomeFieldIndexes struct {
	GPSHome [2]int
}

func NewGPSHomeFieldIndexes() *GPSHomeFieldIndexes {
	return &GPSHomeFieldIndexes{GPSHome: [2]int{-1, -1}}
}

// SlowFieldIndexes gives the positions of well-known fields within the S
// frame schema.
type SlowFieldIndexes struct {
	FlightModeFlags int
	StateFlags      int
	FailsafePhase   int
}

func NewSlowFieldIndexes() *SlowFieldIndexes {
	return &SlowFieldIndexes{FlightModeFlags: -1, StateFlags: -1, FailsafePhase: -1}
}

// HeaderPair preserves one raw "H key:value" line in declaration order,
// alongside the map the header exposes for keyed lookup.
type HeaderPair struct {
	Key   string
	Value string
}

// Header is everything the text header parser produces for one log:
// the per-frame-type schemas, derived system configuration, well-known
// field indexes, and frame-interval / firmware metadata.
type Header struct {
	FrameDefs map[byte]*Schema
	SysConfig *SysConfig

	MainFieldIndexes    *MainFieldIndexes
	GPSFieldIndexes     *GPSFieldIndexes
	GPSHomeFieldIndexes *GPSHomeFieldIndexes
	SlowFieldIndexes    *SlowFieldIndexes

	DataVersion      int
	FirmwareRevision string
	FCVersion        string

	FrameIntervalI     int
	FrameIntervalPNum  int
	FrameIntervalPDenom int

	LogStartDatetime string

	RawPairs []HeaderPair
	Raw      map[string]string
}

// NewHeader returns a Header with the source format's default frame
// interval (I_interval=32, P=1/1) and empty schema map.
func NewHeader() *Header {
	return &Header{
		FrameDefs:           make(map[byte]*Schema),
		SysConfig:           NewSysConfig(),
		MainFieldIndexes:    NewMainFieldIndexes(),
		GPSFieldIndexes:     NewGPSFieldIndexes(),
		GPSHomeFieldIndexes: NewGPSHomeFieldIndexes(),
		SlowFieldIndexes:    NewSlowFieldIndexes(),
		FrameIntervalI:      32,
		FrameIntervalPNum:   1,
		FrameIntervalPDenom: 1,
		Raw:                 make(map[string]string),
	}
}

// ShouldHaveFrame reports whether the frame schedule expects a main
// frame to be emitted at iteration index n, given I_interval and the
// P_num/P_denom ratio.
func ShouldHaveFrame(h *Header, n int) bool {
	return (n%h.FrameIntervalI+h.FrameIntervalPNum-1)%h.FrameIntervalPDenom < h.FrameIntervalPNum
}
