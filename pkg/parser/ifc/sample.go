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

package ifc

// SampleKind tags a Sample with the measurement it carries.
type SampleKind int

const (
	SampleTime SampleKind = iota
	SampleDepth
	SampleTemperature
	SamplePressure
	SampleEvent
	SampleRBT
	SampleHeartbeat
	SampleBearing
	SampleVendor
	SampleGasMix
	SampleDeco
	SampleCNS
	SampleSetpoint
	SamplePPO2
)

// EventType identifies a discrete in-dive event.
type EventType int

const (
	EventNone EventType = iota
	EventDecoStop
	EventRBT
	EventAscent
	EventCeiling
	EventWorkload
	EventTransmitter
	EventViolation
	EventBookmark
	EventSurface
	EventSafetyStop
	EventGasChange
	EventSafetyStopVoluntary
	EventSafetyStopMandatory
	EventDeepStop
	EventCeilingSafetyStop
	EventDiveTime
	EventMaxDepth
	EventOLF
	EventPO2
	EventAirTime
	EventTissueLevel
	EventGasChange2
)

// DecoKind distinguishes the decompression states a sample reports.
type DecoKind int

const (
	DecoNDL DecoKind = iota
	DecoSafetyStop
	DecoDecoStop
	DecoDeepStop
)

// Event flag values marking the start and end of a condition.
const (
	EventFlagBegin = 1 << 0
	EventFlagEnd   = 1 << 1
)

// Event is an in-dive event with its flags and raw value.
type Event struct {
	Type  EventType `json:"type"`
	Time  uint32    `json:"time"`
	Flags uint32    `json:"flags"`
	Value uint32    `json:"value"`
}

// Pressure is one tank pressure reading in bar.
type Pressure struct {
	Tank  uint    `json:"tank"`
	Value float64 `json:"value"`
}

// Vendor is an opaque device-specific sample blob.
type Vendor struct {
	Type uint   `json:"type"`
	Data []byte `json:"data"`
}

// Deco is the decompression state: no-stop time remaining, or the
// next stop depth and duration.
type Deco struct {
	Kind  DecoKind `json:"kind"`
	Depth float64  `json:"depth"`
	Time  uint32   `json:"time"`
}

// Sample is one element of the decoded sample stream. Kind selects
// which of the value fields is meaningful. Every sample belongs to
// the timestamp of the most recent SampleTime.
type Sample struct {
	Kind        SampleKind `json:"kind"`
	Time        uint32     `json:"time,omitempty"`
	Depth       float64    `json:"depth,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
	Pressure    Pressure   `json:"pressure,omitempty"`
	Event       Event      `json:"event,omitempty"`
	RBT         uint32     `json:"rbt,omitempty"`
	Heartbeat   uint32     `json:"heartbeat,omitempty"`
	Bearing     uint32     `json:"bearing,omitempty"`
	Vendor      Vendor     `json:"vendor,omitempty"`
	GasMix      uint32     `json:"gasmix,omitempty"`
	Deco        Deco       `json:"deco,omitempty"`
	CNS         float64    `json:"cns,omitempty"`
	Setpoint    float64    `json:"setpoint,omitempty"`
	PPO2        float64    `json:"ppo2,omitempty"`
}

// SampleCallback receives decoded samples in stream order. Returning
// false stops the iteration without error.
type SampleCallback func(s Sample) bool
