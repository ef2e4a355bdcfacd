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

// Unit conversion constants. Depths are reported in metres, pressures
// in bar, temperatures in degrees Celsius.
const (
	Feet    = 0.3048
	PSI     = 0.0689475729
	Atm     = 101325.0 // Pa
	Bar     = 100000.0 // Pa
	FSW     = 3064.30593138 // Pa per foot of sea water
	Gravity = 9.80665

	DensityFresh = 1000.0 // kg/m3
	DensitySalt  = 1025.0
)

// FahrenheitToCelsius converts a temperature reading.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) / 1.8
}
