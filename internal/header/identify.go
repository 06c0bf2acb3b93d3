package header

import (
	"strconv"
	"strings"

	"github.com/flightlog/blackbox/internal/schema"
)

// identifyMainFields populates the well-known field-index table for
// the I/P frame schema by pattern-matching declared field names.
func identifyMainFields(idx *schema.MainFieldIndexes, def *schema.Schema) {
	for i, name := range def.Names {
		switch {
		case strings.HasPrefix(name, "motor["):
			if mi, ok := bracketIndex(name, "motor["); ok && mi >= 0 && mi < 8 {
				idx.Motor[mi] = i
			}
		case strings.HasPrefix(name, "rcCommand["):
			if ri, ok := bracketIndex(name, "rcCommand["); ok && ri >= 0 && ri < 4 {
				idx.RCCommand[ri] = i
			}
		case strings.HasPrefix(name, "axis"):
			if len(name) < 5 {
				continue
			}
			axisLetter := name[4]
			bracket := strings.IndexByte(name, '[')
			if bracket == -1 {
				continue
			}
			ai, ok := bracketIndexAt(name, bracket)
			if !ok || ai < 0 || ai >= 3 {
				continue
			}
			switch axisLetter {
			case 'P':
				idx.PID[0][ai] = i
			case 'I':
				idx.PID[1][ai] = i
			case 'D':
				idx.PID[2][ai] = i
			}
		case strings.HasPrefix(name, "gyroData[") || strings.HasPrefix(name, "gyroADC["):
			prefix := "gyroData["
			if strings.HasPrefix(name, "gyroADC[") {
				prefix = "gyroADC["
			}
			if ai, ok := bracketIndex(name, prefix); ok && ai >= 0 && ai < 3 {
				idx.GyroADC[ai] = i
			}
		case strings.HasPrefix(name, "magADC["):
			if ai, ok := bracketIndex(name, "magADC["); ok && ai >= 0 && ai < 3 {
				idx.MagADC[ai] = i
			}
		case strings.HasPrefix(name, "accSmooth["):
			if ai, ok := bracketIndex(name, "accSmooth["); ok && ai >= 0 && ai < 3 {
				idx.AccSmooth[ai] = i
			}
		case strings.HasPrefix(name, "servo["):
			if si, ok := bracketIndex(name, "servo["); ok && si >= 0 && si < 8 {
				idx.Servo[si] = i
			}
		case name == "vbatLatest":
			idx.VBatLatest = i
		case name == "amperageLatest":
			idx.AmperageLatest = i
		case name == "BaroAlt":
			idx.BaroAlt = i
		case name == "sonarRaw":
			idx.SonarRaw = i
		case name == "rssi":
			idx.RSSI = i
		case name == "loopIteration":
			idx.LoopIteration = i
		case name == "time":
			idx.Time = i
		}
	}
}

func identifyGPSFields(idx *schema.GPSFieldIndexes, def *schema.Schema) {
	for i, name := range def.Names {
		switch {
		case name == "time":
			idx.Time = i
		case name == "GPS_numSat":
			idx.NumSat = i
		case name == "GPS_altitude":
			idx.Altitude = i
		case name == "GPS_speed":
			idx.Speed = i
		case name == "GPS_ground_course":
			idx.GroundCourse = i
		case strings.HasPrefix(name, "GPS_coord["):
			if ci, ok := bracketIndex(name, "GPS_coord["); ok && ci >= 0 && ci < 2 {
				idx.Coord[ci] = i
			}
		}
	}
}

func identifyGPSHomeFields(idx *schema.GPSHomeFieldIndexes, def *schema.Schema) {
	for i, name := range def.Names {
		switch name {
		case "GPS_home[0]":
			idx.GPSHome[0] = i
		case "GPS_home[1]":
			idx.GPSHome[1] = i
		}
	}
}

func identifySlowFields(idx *schema.SlowFieldIndexes, def *schema.Schema) {
	for i, name := range def.Names {
		switch name {
		case "flightModeFlags":
			idx.FlightModeFlags = i
		case "stateFlags":
			idx.StateFlags = i
		case "failsafePhase":
			idx.FailsafePhase = i
		}
	}
}

// bracketIndex parses the integer inside "prefix<N>]" given the name
// starts with prefix.
func bracketIndex(name, prefix string) (int, bool) {
	rest := strings.TrimPrefix(name, prefix)
	rest = strings.TrimSuffix(rest, "]")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// bracketIndexAt parses the integer inside name[bracket+1:] up to a
// trailing "]".
func bracketIndexAt(name string, bracket int) (int, bool) {
	rest := strings.TrimSuffix(name[bracket+1:], "]")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
