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

package device

import (
	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/device/divesystem"
	"github.com/claudiuolteanu/libdc/pkg/device/ifc"
	"github.com/claudiuolteanu/libdc/pkg/device/suunto"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

// Families with a download protocol. Parsing covers more families than
// downloading: dives from other units can still be fed to the parsers
// from files.
const (
	FamilyIDive    = "divesystem-idive"
	FamilySuuntoD9 = "suunto-d9"
)

// Open opens the serial port of a configured device and hands it to
// the download protocol for its family.
func Open(dev *config.Device) (ifc.Device, error) {
	transport, err := OpenSerial(dev.Port, DefaultBaudRate)
	if err != nil {
		return nil, err
	}

	var d ifc.Device
	switch dev.Family {
	case FamilyIDive:
		d, err = divesystem.NewIDiveDevice(transport)
	case FamilySuuntoD9:
		d, err = suunto.NewSerialDevice(transport, suunto.LayoutD9)
	default:
		transport.Close()
		return nil, parserifc.ErrUnsupported{What: "no download protocol for family " + dev.Family}
	}
	if err != nil {
		transport.Close()
		return nil, err
	}
	return d, nil
}
