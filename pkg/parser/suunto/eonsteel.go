/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package suunto

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/array"
	"github.com/claudiuolteanu/libdc/pkg/log"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	eonSteelMaxType    = 512
	eonSteelMaxGases   = 16
	eonSteelMaxStrings = 16
)

// typeDesc is the descriptor a dive file declares for one record
// type: a dotted path, a format, and an optional modifier.
type typeDesc struct {
	desc   string
	format string
	mod    string
}

type eonSteelCache struct {
	initialized     uint32
	divetime        uint32
	maxdepth        float64
	avgdepth        float64
	gasmixes        []ifc.GasMix
	salinity        ifc.Salinity
	surfacePressure float64
	strings         []ifc.String
}

func (c *eonSteelCache) has(t ifc.FieldType) bool {
	return c.initialized&(1<<uint(t)) != 0
}

func (c *eonSteelCache) mark(t ifc.FieldType) {
	c.initialized |= 1 << uint(t)
}

// EONSteelParser decodes the EON Steel dive file format. The file is
// self-describing: record types declare their own descriptors inline
// and the type table is rebuilt on every bind. Records with unknown
// types are skipped without error. The dive start time is prepended
// to the data as a 4-byte Unix timestamp.
type EONSteelParser struct {
	data  []byte
	descs map[uint16]typeDesc
	cache eonSteelCache
}

func NewEONSteelParser() *EONSteelParser {
	return &EONSteelParser{}
}

func (p *EONSteelParser) Bind(data []byte) error {
	p.data = data
	p.cache = eonSteelCache{}
	p.cache.mark(ifc.FieldDiveTime)
	p.traverse(p.fieldRecord)
	// Time deltas accumulate in milliseconds.
	p.cache.divetime /= 1000
	return nil
}

func (p *EONSteelParser) DateTime() (ifc.DateTime, error) {
	if p.data == nil {
		return ifc.DateTime{}, ifc.ErrNotBound{}
	}
	if len(p.data) < 4 {
		return ifc.DateTime{}, ifc.ErrUnsupported{What: "dive timestamp"}
	}
	ts := array.Uint32LE(p.data)
	dt := ifc.NewDateTime(time.Unix(int64(ts), 0).UTC())
	dt.Timezone = ifc.TimezoneNone
	return dt, nil
}

func (p *EONSteelParser) Field(t ifc.FieldType, index uint) (interface{}, error) {
	if p.data == nil {
		return nil, ifc.ErrNotBound{}
	}
	if !p.cache.has(t) {
		return nil, ifc.ErrUnsupported{What: "field not recorded"}
	}

	switch t {
	case ifc.FieldDiveTime:
		return p.cache.divetime, nil
	case ifc.FieldMaxDepth:
		return p.cache.maxdepth, nil
	case ifc.FieldAvgDepth:
		return p.cache.avgdepth, nil
	case ifc.FieldGasMixCount:
		return uint32(len(p.cache.gasmixes)), nil
	case ifc.FieldGasMix:
		if index >= uint(len(p.cache.gasmixes)) {
			return nil, ifc.ErrInvalidArgs{What: "gas mix index out of range"}
		}
		// Oxygen and helium arrive in separate records; the balance
		// is nitrogen.
		mix := p.cache.gasmixes[index]
		mix.Nitrogen = 1.0 - mix.Oxygen - mix.Helium
		return mix, nil
	case ifc.FieldSalinity:
		return p.cache.salinity, nil
	case ifc.FieldAtmospheric:
		return p.cache.surfacePressure, nil
	case ifc.FieldString:
		if index >= uint(len(p.cache.strings)) {
			return nil, ifc.ErrUnsupported{What: "string index out of range"}
		}
		return p.cache.strings[index], nil
	}
	return nil, ifc.ErrUnsupported{What: "field not recorded"}
}

func (p *EONSteelParser) Samples(cb ifc.SampleCallback) error {
	if p.data == nil {
		return ifc.ErrNotBound{}
	}

	s := &eonSteelSampleState{parser: p, cb: cb}
	p.traverse(s.record)
	return nil
}

type eonRecordFunc func(typ uint16, desc typeDesc, data []byte) bool

// traverse walks all records, rebuilding the type table as the
// descriptors are encountered, and feeds every known record to fn.
func (p *EONSteelParser) traverse(fn eonRecordFunc) {
	data := p.data

	// Dive files carry "SBEM" after the prepended timestamp,
	// followed by four NUL bytes.
	if len(data) < 12 || string(data[4:8]) != "SBEM" {
		return
	}
	data = data[12:]

	p.descs = make(map[uint16]typeDesc)

	for len(data) > 4 {
		n := p.traverseEntry(data, fn)
		if n <= 0 {
			return
		}
		data = data[n:]
	}
}

// traverseEntry decodes one dive entry: a descriptor declaration
// followed by its sub-records. Returns the number of bytes consumed,
// or -1 on a structural error.
func (p *EONSteelParser) traverseEntry(data []byte, fn eonRecordFunc) int {
	if len(data) < 2 || data[0] != 0 {
		log.Warning("eonsteel: bad dive entry (%02x)", data[0])
		return -1
	}
	textlen := int(data[1])

	name := data[2:]
	if textlen == 0xff {
		if len(name) < 4 {
			return -1
		}
		textlen = int(array.Uint32LE(name))
		name = name[4:]
	}

	if textlen < 3 || len(name) < textlen {
		return -1
	}
	payload := name[textlen:]
	typ := array.Uint16LE(name)
	name = name[2:]

	if name[0] != '<' {
		log.Warning("eonsteel: bad type descriptor")
		return -1
	}
	p.recordType(typ, string(name[:textlen-3]))

	// Sub-records follow until the next entry (which starts with a
	// zero byte) or the end of the buffer.
	end := payload
	consumed := len(data) - len(payload)
	for len(end) > 0 && end[0] != 0 {
		subtype := uint16(end[0])
		end = end[1:]
		consumed++
		if subtype == 0xff {
			if len(end) < 2 {
				return -1
			}
			subtype = array.Uint16LE(end)
			end = end[2:]
			consumed += 2
		}
		if len(end) < 1 {
			return -1
		}
		sublen := int(end[0])
		end = end[1:]
		consumed++
		if sublen == 0xff {
			if len(end) < 4 {
				return -1
			}
			sublen = int(array.Uint32LE(end))
			end = end[4:]
			consumed += 4
		}

		if len(end) < sublen {
			return -1
		}
		if desc, ok := p.descs[subtype]; ok {
			if !fn(subtype, desc, end[:sublen]) {
				return -1
			}
		}
		// Unknown types are skipped: the descriptor declarations
		// for them simply have not been seen.
		end = end[sublen:]
		consumed += sublen
	}

	return consumed
}

// recordType parses a newline-separated descriptor declaration, e.g.
// "<PTH> sml.DeviceLog.Header.Depth.Max\n<FRM> float32".
func (p *EONSteelParser) recordType(typ uint16, name string) {
	if typ >= eonSteelMaxType {
		log.Warning("eonsteel: type out of range (%04x)", typ)
		return
	}

	var desc typeDesc
	for _, line := range strings.Split(name, "\n") {
		if len(line) < 5 || line[0] != '<' || line[4] != '>' {
			log.Warning("eonsteel: unexpected type description: %s", line)
			return
		}
		content := line[5:]
		// PTH, GRP, FRM, MOD
		switch line[1] {
		case 'P', 'G':
			desc.desc = content
		case 'F':
			desc.format = content
		case 'M':
			desc.mod = content
		default:
			log.Warning("eonsteel: unknown type descriptor: %s", line)
			return
		}
	}

	p.descs[typ] = desc
}

func cstring(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

func (p *EONSteelParser) addString(desc, value string) {
	p.cache.mark(ifc.FieldString)
	if len(p.cache.strings) < eonSteelMaxStrings {
		p.cache.strings = append(p.cache.strings, ifc.String{Desc: desc, Value: value})
	}
}

// fieldRecord feeds the summary field cache during Bind.
func (p *EONSteelParser) fieldRecord(typ uint16, desc typeDesc, data []byte) bool {
	switch typ {
	case 0x0001: // group: time in first word, depth in second
		if len(data) < 4 {
			return true
		}
		p.cache.divetime += uint32(array.Uint16LE(data))
		p.setDepthField(array.Uint16LE(data[2:]))
	case 0x0002: // time in first word
		if len(data) < 2 {
			return true
		}
		p.cache.divetime += uint32(array.Uint16LE(data))
	case 0x0003: // depth in first word
		if len(data) < 2 {
			return true
		}
		p.setDepthField(array.Uint16LE(data))
	case 0x000d: // gas state in first byte
		if len(p.cache.gasmixes) < eonSteelMaxGases {
			p.cache.gasmixes = append(p.cache.gasmixes, ifc.GasMix{})
		}
		p.cache.mark(ifc.FieldGasMixCount)
	case 0x000e: // oxygen percentage in first byte
		if n := len(p.cache.gasmixes); n > 0 && len(data) > 0 {
			p.cache.gasmixes[n-1].Oxygen = float64(data[0]) / 100.0
		}
		p.cache.mark(ifc.FieldGasMix)
	case 0x000f: // helium percentage in first byte
		if n := len(p.cache.gasmixes); n > 0 && len(data) > 0 {
			p.cache.gasmixes[n-1].Helium = float64(data[0]) / 100.0
		}
		p.cache.mark(ifc.FieldGasMix)
	case 0x0011: // transmitter ID
		p.addString("Transmitter ID", cstring(data))
	default:
		// Types above the fixed range are dynamic: dispatch on
		// the declared descriptor path.
		if typ > 255 {
			p.dynamicField(desc, data)
		}
	}
	return true
}

func (p *EONSteelParser) setDepthField(d uint16) {
	if d == 0xffff {
		return
	}
	depth := float64(d) / 100.0
	if depth > p.cache.maxdepth {
		p.cache.maxdepth = depth
	}
	p.cache.mark(ifc.FieldMaxDepth)
}

func (p *EONSteelParser) dynamicField(desc typeDesc, data []byte) {
	name := desc.desc
	if !strings.HasPrefix(name, "sml.DeviceLog.") {
		return
	}
	name = strings.TrimPrefix(name, "sml.DeviceLog.")

	if strings.HasPrefix(name, "Device.") {
		p.deviceField(strings.TrimPrefix(name, "Device."), data)
	} else if strings.HasPrefix(name, "Header.") {
		p.headerField(strings.TrimPrefix(name, "Header."), data)
	}
}

func (p *EONSteelParser) deviceField(name string, data []byte) {
	switch name {
	case "SerialNumber":
		p.addString("Serial", cstring(data))
	case "Info.HW":
		p.addString("HW Version", cstring(data))
	case "Info.SW":
		p.addString("FW Version", cstring(data))
	case "Info.BatteryAtStart":
		p.addString("Battery at start", cstring(data))
	case "Info.BatteryAtEnd":
		p.addString("Battery at end", cstring(data))
	}
}

func (p *EONSteelParser) headerField(name string, data []byte) {
	switch name {
	case "Depth.Max":
		if len(data) < 4 {
			return
		}
		d := float64(math.Float32frombits(array.Uint32LE(data)))
		if d > p.cache.maxdepth {
			p.cache.maxdepth = d
		}
	case "Diving.SurfacePressure":
		if len(data) < 4 {
			return
		}
		pressure := array.Uint32LE(data) // Pascal
		p.cache.surfacePressure = float64(pressure) / ifc.Bar
		p.cache.mark(ifc.FieldAtmospheric)
	case "DateTime":
		p.addString("Dive ID", cstring(data))
	case "Diving.Algorithm":
		p.addString("Deco algorithm", cstring(data))
	case "Diving.DiveMode":
		p.addString("Dive Mode", cstring(data))
	case "Diving.Conservatism":
		if len(data) < 1 {
			return
		}
		p.addString("Personal Adjustment", fmt.Sprintf("P%d", int(int8(data[0]))))
	}
}

// eonSteelSampleState tracks the sample stream position and the
// pending type halves of the state/notify/warning/alarm event pairs.
type eonSteelSampleState struct {
	parser *EONSteelParser
	cb     ifc.SampleCallback
	time   uint32 // milliseconds

	stateType   byte
	notifyType  byte
	warningType byte
	alarmType   byte
}

var eonSteelNotifications = []ifc.EventType{
	ifc.EventNone,                // 0=NoFly Time
	ifc.EventNone,                // 1=Depth
	ifc.EventNone,                // 2=Surface Time
	ifc.EventTissueLevel,         // 3=Tissue Level
	ifc.EventNone,                // 4=Deco
	ifc.EventNone,                // 5=Deco Window
	ifc.EventSafetyStopVoluntary, // 6=Safety Stop Ahead
	ifc.EventSafetyStop,          // 7=Safety Stop
	ifc.EventCeilingSafetyStop,   // 8=Safety Stop Broken
	ifc.EventNone,                // 9=Deep Stop Ahead
	ifc.EventDeepStop,            // 10=Deep Stop
	ifc.EventDiveTime,            // 11=Dive Time
	ifc.EventNone,                // 12=Gas Available
	ifc.EventNone,                // 13=SetPoint Switch
	ifc.EventNone,                // 14=Diluent Hypoxia
	ifc.EventNone,                // 15=Tank Pressure
}

var eonSteelWarnings = []ifc.EventType{
	ifc.EventNone,                // 0=ICD Penalty
	ifc.EventViolation,           // 1=Deep Stop Penalty
	ifc.EventSafetyStopMandatory, // 2=Mandatory Safety Stop
	ifc.EventNone,                // 3=OTU250
	ifc.EventNone,                // 4=OTU300
	ifc.EventNone,                // 5=CNS80%
	ifc.EventNone,                // 6=CNS100%
	ifc.EventAirTime,             // 7=Air Time
	ifc.EventMaxDepth,            // 8=Max.Depth
	ifc.EventAirTime,             // 9=Tank Pressure
	ifc.EventCeilingSafetyStop,   // 10=Safety Stop Broken
	ifc.EventCeilingSafetyStop,   // 11=Deep Stop Broken
	ifc.EventCeiling,             // 12=Ceiling Broken
	ifc.EventPO2,                 // 13=PO2 High
}

var eonSteelAlarms = []ifc.EventType{
	ifc.EventCeilingSafetyStop, // 0=Mandatory Safety Stop Broken
	ifc.EventAscent,            // 1=Ascent Speed
	ifc.EventNone,              // 2=Diluent Hyperoxia
	ifc.EventViolation,         // 3=Violated Deep Stop
	ifc.EventCeiling,           // 4=Ceiling Broken
	ifc.EventPO2,               // 5=PO2 High
	ifc.EventPO2,               // 6=PO2 Low
}

func (s *eonSteelSampleState) record(typ uint16, desc typeDesc, data []byte) bool {
	if len(data) == 0 {
		return true
	}
	switch typ {
	case 0x0001: // group: time, depth, temperature, deco
		if len(data) < 14 {
			return true
		}
		if !s.sampleTime(array.Uint16LE(data)) {
			return false
		}
		if !s.sampleDepth(array.Uint16LE(data[2:])) {
			return false
		}
		if !s.sampleTemp(int16(array.Uint16LE(data[4:]))) {
			return false
		}
		return s.sampleDeco(int16(array.Uint16LE(data[8:])), array.Uint16LE(data[10:]), array.Uint16LE(data[12:]))
	case 0x0002:
		if len(data) < 2 {
			return true
		}
		return s.sampleTime(array.Uint16LE(data))
	case 0x0003:
		if len(data) < 2 {
			return true
		}
		return s.sampleDepth(array.Uint16LE(data))
	case 0x000a: // cylinder idx in first byte, pressure in next word
		if len(data) < 3 {
			return true
		}
		return s.samplePressure(data[0], array.Uint16LE(data[1:]))
	case 0x0013:
		s.stateType = data[0]
	case 0x0014:
		// Event states have no generic event mapping.
	case 0x0015:
		s.notifyType = data[0]
	case 0x0016:
		return s.translatedEvent(eonSteelNotifications, s.notifyType, data[0])
	case 0x0017:
		s.warningType = data[0]
	case 0x0018:
		return s.translatedEvent(eonSteelWarnings, s.warningType, data[0])
	case 0x0019:
		s.alarmType = data[0]
	case 0x001a:
		return s.translatedEvent(eonSteelAlarms, s.alarmType, data[0])
	case 0x001c:
		if len(data) < 2 {
			return true
		}
		ev := ifc.Sample{Kind: ifc.SampleEvent}
		ev.Event.Type = ifc.EventBookmark
		ev.Event.Value = uint32(array.Uint16LE(data))
		return s.cb(ev)
	case 0x001d:
		if len(data) < 2 {
			return true
		}
		return s.gasSwitch(array.Uint16LE(data))
	}
	return true
}

func (s *eonSteelSampleState) sampleTime(delta uint16) bool {
	s.time += uint32(delta)
	return s.cb(ifc.Sample{Kind: ifc.SampleTime, Time: s.time / 1000})
}

func (s *eonSteelSampleState) sampleDepth(depth uint16) bool {
	if depth == 0xffff {
		return true
	}
	return s.cb(ifc.Sample{Kind: ifc.SampleDepth, Depth: float64(depth) / 100.0})
}

func (s *eonSteelSampleState) sampleTemp(temp int16) bool {
	if temp < -3000 {
		return true
	}
	return s.cb(ifc.Sample{Kind: ifc.SampleTemperature, Temperature: float64(temp) / 10.0})
}

func (s *eonSteelSampleState) sampleDeco(ndl int16, tts, ceiling uint16) bool {
	sample := ifc.Sample{Kind: ifc.SampleDeco}
	if ndl < 0 {
		sample.Deco.Kind = ifc.DecoDecoStop
		if tts != 0xffff {
			sample.Deco.Time = uint32(tts)
		}
		if ceiling != 0xffff {
			sample.Deco.Depth = float64(ceiling) / 100.0
		}
	} else {
		sample.Deco.Kind = ifc.DecoNDL
		sample.Deco.Time = uint32(ndl)
	}
	return s.cb(sample)
}

func (s *eonSteelSampleState) samplePressure(idx byte, pressure uint16) bool {
	if pressure == 0xffff {
		return true
	}
	return s.cb(ifc.Sample{
		Kind:     ifc.SamplePressure,
		Pressure: ifc.Pressure{Tank: uint(idx) - 1, Value: float64(pressure) / 100.0},
	})
}

func (s *eonSteelSampleState) translatedEvent(table []ifc.EventType, typ, value byte) bool {
	if int(typ) >= len(table) {
		return true
	}
	et := table[typ]
	if et == ifc.EventNone {
		return true
	}
	ev := ifc.Sample{Kind: ifc.SampleEvent}
	ev.Event.Type = et
	if value != 0 {
		ev.Event.Value = ifc.EventFlagBegin
	} else {
		ev.Event.Value = ifc.EventFlagEnd
	}
	return s.cb(ev)
}

func (s *eonSteelSampleState) gasSwitch(idx uint16) bool {
	mixes := s.parser.cache.gasmixes
	if idx < 1 || int(idx) > len(mixes) {
		return true
	}
	mix := mixes[idx-1]
	o2 := uint32(100 * mix.Oxygen)
	he := uint32(100 * mix.Helium)

	ev := ifc.Sample{Kind: ifc.SampleEvent}
	ev.Event.Type = ifc.EventGasChange2
	ev.Event.Value = o2 | he<<16
	ev.Event.Flags = uint32(idx)
	return s.cb(ev)
}
