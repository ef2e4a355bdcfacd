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

package uwatec

// Smart/Galileo model numbers.
const (
	ModelSmartPro      = 0x10
	ModelGalileo       = 0x11
	ModelAladinTec     = 0x12
	ModelAladinTec2G   = 0x13
	ModelSmartCom      = 0x14
	ModelAladin2G      = 0x15
	ModelSmartTec      = 0x18
	ModelGalileoTrimix = 0x19
	ModelSmartZ        = 0x1c
	ModelMeridian      = 0x20
	ModelChromis       = 0x24
)

// unsupported marks a header field the model does not record.
const unsupported = -1

// smartHeader gives the byte offsets of the summary fields within a
// model's dive header.
type smartHeader struct {
	maxdepth     int
	divetime     int
	gasmix       int
	ngases       int
	tempMinimum  int
	tempMaximum  int
	tempSurface  int
	tankpressure int
	salinity     int
	timezone     int
}

// smartSample describes one entry of a model's bitstream type table.
// The type tag occupies ntypebits; the remaining bits of the last
// type byte plus extrabytes whole bytes form the value, unless
// ignoretype discards the leftover bits.
type smartSample struct {
	typ        smartSampleType
	absolute   bool
	index      int
	ntypebits  uint
	ignoretype bool
	extrabytes int
}

type smartSampleType int

const (
	samplePressureDepth smartSampleType = iota
	sampleRBT
	sampleTemperature
	samplePressure
	sampleDepth
	sampleHeartrate
	sampleBearing
	sampleAlarms
	sampleTime
	sampleUnknown1
	sampleUnknown2
)

var smartProHeader = smartHeader{
	maxdepth:     18,
	divetime:     20,
	gasmix:       24,
	ngases:       1,
	tempMinimum:  22,
	tempMaximum:  unsupported,
	tempSurface:  unsupported,
	tankpressure: unsupported,
	salinity:     unsupported,
	timezone:     unsupported,
}

var smartGalileoHeader = smartHeader{
	maxdepth:     22,
	divetime:     26,
	gasmix:       44,
	ngases:       3,
	tempMinimum:  30,
	tempMaximum:  28,
	tempSurface:  32,
	tankpressure: 50,
	salinity:     94,
	timezone:     16,
}

var smartAladinTecHeader = smartHeader{
	maxdepth:     22,
	divetime:     24,
	gasmix:       30,
	ngases:       1,
	tempMinimum:  26,
	tempMaximum:  28,
	tempSurface:  32,
	tankpressure: unsupported,
	salinity:     unsupported,
	timezone:     16,
}

var smartAladinTec2GHeader = smartHeader{
	maxdepth:     22,
	divetime:     26,
	gasmix:       34,
	ngases:       2,
	tempMinimum:  30,
	tempMaximum:  28,
	tempSurface:  32,
	tankpressure: unsupported,
	salinity:     unsupported,
	timezone:     unsupported,
}

var smartComHeader = smartHeader{
	maxdepth:     18,
	divetime:     20,
	gasmix:       24,
	ngases:       1,
	tempMinimum:  22,
	tempMaximum:  unsupported,
	tempSurface:  unsupported,
	tankpressure: 30,
	salinity:     unsupported,
	timezone:     unsupported,
}

var smartTecHeader = smartHeader{
	maxdepth:     18,
	divetime:     20,
	gasmix:       28,
	ngases:       3,
	tempMinimum:  22,
	tempMaximum:  unsupported,
	tempSurface:  unsupported,
	tankpressure: 34,
	salinity:     unsupported,
	timezone:     unsupported,
}

var smartProSamples = []smartSample{
	{sampleDepth, false, 0, 1, false, 0},       // 0ddddddd
	{sampleTemperature, false, 0, 2, false, 0}, // 10dddddd
	{sampleTime, true, 0, 3, false, 0},         // 110ddddd
	{sampleAlarms, true, 0, 4, false, 0},       // 1110dddd
	{sampleDepth, false, 0, 5, false, 1},       // 11110ddd dddddddd
	{sampleTemperature, false, 0, 6, false, 1}, // 111110dd dddddddd
	{sampleDepth, true, 0, 7, true, 2},         // 1111110d dddddddd dddddddd
	{sampleTemperature, true, 0, 8, false, 2},  // 11111110 dddddddd dddddddd
}

var smartGalileoSamples = []smartSample{
	{sampleDepth, false, 0, 1, false, 0},       // 0ddd dddd
	{sampleRBT, false, 0, 3, false, 0},         // 100d dddd
	{samplePressure, false, 0, 4, false, 0},    // 1010 dddd
	{sampleTemperature, false, 0, 4, false, 0}, // 1011 dddd
	{sampleTime, true, 0, 4, false, 0},         // 1100 dddd
	{sampleHeartrate, false, 0, 4, false, 0},   // 1101 dddd
	{sampleAlarms, true, 0, 4, false, 0},       // 1110 dddd
	{sampleAlarms, true, 1, 8, false, 1},       // 1111 0000 dddddddd
	{sampleDepth, true, 0, 8, false, 2},        // 1111 0001 dddddddd dddddddd
	{sampleRBT, true, 0, 8, false, 1},          // 1111 0010 dddddddd
	{sampleTemperature, true, 0, 8, false, 2},  // 1111 0011 dddddddd dddddddd
	{samplePressure, true, 0, 8, false, 2},     // 1111 0100 dddddddd dddddddd
	{samplePressure, true, 1, 8, false, 2},     // 1111 0101 dddddddd dddddddd
	{samplePressure, true, 2, 8, false, 2},     // 1111 0110 dddddddd dddddddd
	{sampleHeartrate, true, 0, 8, false, 1},    // 1111 0111 dddddddd
	{sampleBearing, true, 0, 8, false, 2},      // 1111 1000 dddddddd dddddddd
	{sampleAlarms, true, 2, 8, false, 1},       // 1111 1001 dddddddd
	{sampleUnknown1, true, 0, 8, false, 0},     // 1111 1010 (8 bytes)
	{sampleUnknown2, true, 0, 8, false, 1},     // 1111 1011 dddddddd (n-1 bytes)
}

var smartAladinSamples = []smartSample{
	{sampleDepth, false, 0, 1, false, 0},       // 0ddddddd
	{sampleTemperature, false, 0, 2, false, 0}, // 10dddddd
	{sampleTime, true, 0, 3, false, 0},         // 110ddddd
	{sampleAlarms, true, 0, 4, false, 0},       // 1110dddd
	{sampleDepth, false, 0, 5, false, 1},       // 11110ddd dddddddd
	{sampleTemperature, false, 0, 6, false, 1}, // 111110dd dddddddd
	{sampleDepth, true, 0, 7, true, 2},         // 1111110d dddddddd dddddddd
	{sampleTemperature, true, 0, 8, false, 2},  // 11111110 dddddddd dddddddd
	{sampleAlarms, true, 1, 9, false, 0},       // 11111111 0ddddddd
}

var smartComSamples = []smartSample{
	{samplePressureDepth, false, 0, 1, false, 1}, // 0ddddddd dddddddd
	{sampleRBT, false, 0, 2, false, 0},           // 10dddddd
	{sampleTemperature, false, 0, 3, false, 0},   // 110ddddd
	{samplePressure, false, 0, 4, false, 1},      // 1110dddd dddddddd
	{sampleDepth, false, 0, 5, false, 1},         // 11110ddd dddddddd
	{sampleTemperature, false, 0, 6, false, 1},   // 111110dd dddddddd
	{sampleAlarms, true, 0, 7, true, 1},          // 1111110d dddddddd
	{sampleTime, true, 0, 8, false, 1},           // 11111110 dddddddd
	{sampleDepth, true, 0, 9, true, 2},           // 11111111 0ddddddd dddddddd dddddddd
	{samplePressure, true, 0, 10, true, 2},       // 11111111 10dddddd dddddddd dddddddd
	{sampleTemperature, true, 0, 11, true, 2},    // 11111111 110ddddd dddddddd dddddddd
	{sampleRBT, true, 0, 12, true, 1},            // 11111111 1110dddd dddddddd
}

var smartTecSamples = []smartSample{
	{samplePressureDepth, false, 0, 1, false, 1}, // 0ddddddd dddddddd
	{sampleRBT, false, 0, 2, false, 0},           // 10dddddd
	{sampleTemperature, false, 0, 3, false, 0},   // 110ddddd
	{samplePressure, false, 0, 4, false, 1},      // 1110dddd dddddddd
	{sampleDepth, false, 0, 5, false, 1},         // 11110ddd dddddddd
	{sampleTemperature, false, 0, 6, false, 1},   // 111110dd dddddddd
	{sampleAlarms, true, 0, 7, true, 1},          // 1111110d dddddddd
	{sampleTime, true, 0, 8, false, 1},           // 11111110 dddddddd
	{sampleDepth, true, 0, 9, true, 2},           // 11111111 0ddddddd dddddddd dddddddd
	{sampleTemperature, true, 0, 10, true, 2},    // 11111111 10dddddd dddddddd dddddddd
	{samplePressure, true, 0, 11, true, 2},       // 11111111 110ddddd dddddddd dddddddd
	{samplePressure, true, 1, 12, true, 2},       // 11111111 1110dddd dddddddd dddddddd
	{samplePressure, true, 2, 13, true, 2},       // 11111111 11110ddd dddddddd dddddddd
	{sampleRBT, true, 0, 14, true, 1},            // 11111111 111110dd dddddddd
}
