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

package divesystem

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/checksum"
	"github.com/claudiuolteanu/libdc/pkg/device/ifc"
)

// fakeTransport scripts a command/response exchange: every Write must
// match the next expected frame and queues the paired answer for the
// following Reads. Reads from an empty queue behave like a serial
// timeout and return zero bytes.
type fakeTransport struct {
	t      *testing.T
	writes [][]byte
	reads  [][]byte
	rx     bytes.Buffer
	closed bool
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if len(f.writes) == 0 {
		f.t.Fatalf("unexpected write: % x", p)
	}
	want := f.writes[0]
	f.writes = f.writes[1:]
	if !bytes.Equal(p, want) {
		f.t.Fatalf("write mismatch: got % x, want % x", p, want)
	}
	f.rx.Write(f.reads[0])
	f.reads = f.reads[1:]
	return len(p), nil
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if f.rx.Len() == 0 {
		return 0, nil
	}
	return f.rx.Read(p)
}

func (f *fakeTransport) SetTimeout(timeout time.Duration) error { return nil }
func (f *fakeTransport) Flush() error                           { return nil }
func (f *fakeTransport) Close() error                           { f.closed = true; return nil }

// frame wraps a payload in the wire framing: start byte, length,
// payload and big-endian CRC-CCITT.
func frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, 0x55, byte(len(payload)))
	out = append(out, payload...)
	crc := checksum.CRCCCITT(out)
	return append(out, byte(crc>>8), byte(crc))
}

// answer builds a device reply: command echo, data, ACK.
func answer(cmd byte, data []byte) []byte {
	payload := make([]byte, 0, len(data)+2)
	payload = append(payload, cmd)
	payload = append(payload, data...)
	payload = append(payload, ack)
	return frame(payload)
}

func idHandshake() ([]byte, []byte) {
	id := make([]byte, szID)
	binary.LittleEndian.PutUint16(id, 0x0112)
	binary.LittleEndian.PutUint32(id[6:], 12345678)
	return frame([]byte{cmdID, 0xED}), answer(cmdID, id)
}

func diveHeader(nsamples int, fingerprint [4]byte) []byte {
	header := make([]byte, szHeader)
	binary.LittleEndian.PutUint16(header[1:], uint16(nsamples))
	copy(header[7:], fingerprint[:])
	return header
}

func TestIDiveDownload(t *testing.T) {
	ft := &fakeTransport{t: t}

	idCmd, idAns := idHandshake()
	ft.writes = append(ft.writes, idCmd)
	ft.reads = append(ft.reads, idAns)

	rng := []byte{1, 0, 2, 0} // dives 1..2
	ft.writes = append(ft.writes, frame([]byte{cmdRange, 0x8D}))
	ft.reads = append(ft.reads, answer(cmdRange, rng))

	headers := [][]byte{
		diveHeader(2, [4]byte{0xAA, 0xBB, 0xCC, 0xDD}),
		diveHeader(1, [4]byte{0x11, 0x22, 0x33, 0x44}),
	}
	samples := [][][]byte{
		{make([]byte, szSample), make([]byte, szSample)},
		{make([]byte, szSample)},
	}
	samples[0][0][0] = 0x01
	samples[0][1][0] = 0x02
	samples[1][0][0] = 0x03

	for i, number := range []uint16{2, 1} {
		ft.writes = append(ft.writes, frame([]byte{cmdHeader, byte(number), byte(number >> 8)}))
		ft.reads = append(ft.reads, answer(cmdHeader, headers[i]))
		for j := range samples[i] {
			idx := uint16(j + 1)
			ft.writes = append(ft.writes, frame([]byte{cmdSample, byte(idx), byte(idx >> 8)}))
			ft.reads = append(ft.reads, answer(cmdSample, samples[i][j]))
		}
	}

	dev, err := NewIDiveDevice(ft)
	if err != nil {
		t.Fatalf("NewIDiveDevice: %v", err)
	}

	info := dev.Info()
	if info.Model != 0x0112 || info.Serial != 12345678 {
		t.Fatalf("unexpected device info: %+v", info)
	}

	var dives [][]byte
	var fingerprints [][]byte
	err = dev.Foreach(func(data, fingerprint []byte) bool {
		dives = append(dives, append([]byte(nil), data...))
		fingerprints = append(fingerprints, append([]byte(nil), fingerprint...))
		return true
	})
	if err != nil {
		t.Fatalf("Foreach: %v", err)
	}

	if len(dives) != 2 {
		t.Fatalf("got %d dives, want 2", len(dives))
	}
	for i := range dives {
		want := append([]byte(nil), headers[i]...)
		for _, s := range samples[i] {
			want = append(want, s...)
		}
		if !bytes.Equal(dives[i], want) {
			t.Errorf("dive %d data mismatch", i)
		}
		if !bytes.Equal(fingerprints[i], headers[i][7:11]) {
			t.Errorf("dive %d fingerprint mismatch: % x", i, fingerprints[i])
		}
	}

	if err := dev.Close(); err != nil || !ft.closed {
		t.Fatalf("Close: err=%v closed=%v", err, ft.closed)
	}
}

func TestIDiveFingerprintStop(t *testing.T) {
	ft := &fakeTransport{t: t}

	idCmd, idAns := idHandshake()
	ft.writes = append(ft.writes, idCmd)
	ft.reads = append(ft.reads, idAns)

	ft.writes = append(ft.writes, frame([]byte{cmdRange, 0x8D}))
	ft.reads = append(ft.reads, answer(cmdRange, []byte{1, 0, 3, 0}))

	fp := [4]byte{0xDE, 0xAD, 0xBE, 0xEF}
	ft.writes = append(ft.writes, frame([]byte{cmdHeader, 3, 0}))
	ft.reads = append(ft.reads, answer(cmdHeader, diveHeader(5, fp)))

	dev, err := NewIDiveDevice(ft)
	if err != nil {
		t.Fatalf("NewIDiveDevice: %v", err)
	}
	dev.SetFingerprint(fp[:])

	calls := 0
	err = dev.Foreach(func(data, fingerprint []byte) bool {
		calls++
		return true
	})
	if err != nil {
		t.Fatalf("Foreach: %v", err)
	}
	if calls != 0 {
		t.Fatalf("callback called %d times, want 0", calls)
	}
	if len(ft.writes) != 0 {
		t.Fatalf("%d scripted commands not consumed", len(ft.writes))
	}
}

func TestIDiveBusyRetry(t *testing.T) {
	ft := &fakeTransport{t: t}

	idCmd, idAns := idHandshake()
	// First attempt is answered with a BUSY NAK, the retry succeeds.
	ft.writes = append(ft.writes, idCmd, idCmd)
	ft.reads = append(ft.reads, frame([]byte{cmdID, errBusy, nak}), idAns)

	dev, err := NewIDiveDevice(ft)
	if err != nil {
		t.Fatalf("NewIDiveDevice: %v", err)
	}
	if dev.Info().Serial != 12345678 {
		t.Fatalf("unexpected serial: %d", dev.Info().Serial)
	}
}

func TestIDiveBadChecksum(t *testing.T) {
	ft := &fakeTransport{t: t}

	bad := answer(cmdID, make([]byte, szID))
	bad[len(bad)-1] ^= 0xFF
	idCmd, _ := idHandshake()
	ft.writes = append(ft.writes, idCmd)
	ft.reads = append(ft.reads, bad)

	_, err := NewIDiveDevice(ft)
	var perr ifc.ErrProtocol
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want protocol error", err)
	}
}

func TestIDiveTimeout(t *testing.T) {
	ft := &fakeTransport{t: t}

	idCmd, _ := idHandshake()
	ft.writes = append(ft.writes, idCmd)
	ft.reads = append(ft.reads, nil)

	_, err := NewIDiveDevice(ft)
	var terr ifc.ErrTimeout
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want timeout error", err)
	}
}
