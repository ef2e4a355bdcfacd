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

// Package device implements the serial transport the download
// protocols run over, and the dispatch from a configured device to the
// protocol that speaks to it.
package device

import (
	"time"

	"go.bug.st/serial"

	"github.com/claudiuolteanu/libdc/pkg/device/ifc"
)

const (
	DefaultBaudRate = 115200
	// SettleDelay gives the USB bridge time to settle after open
	// before the first command goes out.
	SettleDelay    = 300 * time.Millisecond
	DefaultTimeout = 1 * time.Second
)

// SerialTransport adapts a serial port to the Transport contract.
type SerialTransport struct {
	port serial.Port
}

var _ ifc.Transport = &SerialTransport{}

// OpenSerial opens the named port at 8N1 with the given baud rate,
// waits for the line to settle and drops whatever the device pushed
// out while the port was opening.
func OpenSerial(name string, baudRate int) (*SerialTransport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, ifc.ErrIO{What: err.Error()}
	}

	t := &SerialTransport{port: port}
	if err := t.SetTimeout(DefaultTimeout); err != nil {
		port.Close()
		return nil, err
	}

	time.Sleep(SettleDelay)
	if err := t.Flush(); err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
}

func (t *SerialTransport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		return n, ifc.ErrIO{What: err.Error()}
	}
	return n, nil
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, ifc.ErrIO{What: err.Error()}
	}
	return n, nil
}

func (t *SerialTransport) SetTimeout(timeout time.Duration) error {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return ifc.ErrIO{What: err.Error()}
	}
	return nil
}

func (t *SerialTransport) Flush() error {
	if err := t.port.ResetInputBuffer(); err != nil {
		return ifc.ErrIO{What: err.Error()}
	}
	return nil
}

func (t *SerialTransport) Close() error {
	return t.port.Close()
}
