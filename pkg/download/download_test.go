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

package download

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/claudiuolteanu/libdc/pkg/config"
	deviceifc "github.com/claudiuolteanu/libdc/pkg/device/ifc"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

// fakeDevice hands out canned dives, newest first, honoring the armed
// fingerprint the way a real unit does.
type fakeDevice struct {
	info         deviceifc.DevInfo
	dives        [][]byte
	fingerprints [][]byte
	armed        []byte
	closed       bool
}

func (f *fakeDevice) Info() deviceifc.DevInfo { return f.info }

func (f *fakeDevice) SetFingerprint(fp []byte) {
	f.armed = append([]byte(nil), fp...)
}

func (f *fakeDevice) Foreach(cb deviceifc.DiveCallback) error {
	for i := range f.dives {
		if bytes.Equal(f.fingerprints[i], f.armed) {
			break
		}
		if cb != nil && !cb(f.dives[i], f.fingerprints[i]) {
			return nil
		}
	}
	return nil
}

func (f *fakeDevice) Close() error { f.closed = true; return nil }

// idiveDive builds a one-sample dive in the iDive record layout:
// a 0x32 byte header with the start time and surface pressure,
// followed by 0x2A byte samples.
func idiveDive(start uint32, depth uint16, duration uint32) []byte {
	data := make([]byte, 0x32)
	binary.LittleEndian.PutUint32(data[7:], start)
	binary.LittleEndian.PutUint16(data[11:], 1013)

	sample := make([]byte, 0x2A)
	binary.LittleEndian.PutUint32(sample[2:], duration)
	binary.LittleEndian.PutUint16(sample[6:], depth)
	binary.LittleEndian.PutUint16(sample[8:], 194)
	sample[10] = 21
	binary.LittleEndian.PutUint16(sample[23:], 0xFFFF)
	return append(data, sample...)
}

func newTestDownloader(t *testing.T) (*Downloader, *store.Store, *config.Config) {
	t.Helper()
	cfg := config.NewConfig(filepath.Join(t.TempDir(), "config.yaml"))
	st, err := store.NewStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(st.Close)
	return NewDownloader(cfg, st), st, cfg
}

func TestDownloadStoresDives(t *testing.T) {
	dl, st, cfg := newTestDownloader(t)
	devCfg, _ := cfg.DeviceByName("default")

	dives := [][]byte{
		idiveDive(300000060, 180, 25),
		idiveDive(300000000, 215, 30),
	}
	dev := &fakeDevice{
		info:         deviceifc.DevInfo{Model: 0x0112, Serial: 12345678},
		dives:        dives,
		fingerprints: [][]byte{dives[0][7:11], dives[1][7:11]},
	}

	count, err := dl.run(devCfg, dev)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d dives, want 2", count)
	}

	summaries, err := st.ListDives("default")
	if err != nil {
		t.Fatalf("ListDives: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	// The second stored dive is the older one.
	second := summaries[1]
	if second.DiveTime != 30 || second.MaxDepth != 21.5 {
		t.Errorf("unexpected summary: %+v", second)
	}
	started := time.Unix(300000000+1199145600, 0)
	wantDT := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		started.Year(), int(started.Month()), started.Day(),
		started.Hour(), started.Minute(), started.Second())
	if second.DateTime != wantDT {
		t.Errorf("datetime: got %q, want %q", second.DateTime, wantDT)
	}
	if second.Fingerprint != hex.EncodeToString(dives[1][7:11]) {
		t.Errorf("fingerprint: got %q", second.Fingerprint)
	}

	fp, err := st.GetFingerprint("default")
	if err != nil {
		t.Fatalf("GetFingerprint: %v", err)
	}
	if !bytes.Equal(fp, dives[0][7:11]) {
		t.Errorf("stored fingerprint is not the newest dive: % x", fp)
	}

	raw, err := st.GetDive("default", 2)
	if err != nil {
		t.Fatalf("GetDive: %v", err)
	}
	if !bytes.Equal(raw, dives[1]) {
		t.Errorf("raw dive data mismatch")
	}
}

func TestDownloadIncremental(t *testing.T) {
	dl, st, cfg := newTestDownloader(t)
	devCfg, _ := cfg.DeviceByName("default")

	dives := [][]byte{
		idiveDive(300000060, 180, 25),
		idiveDive(300000000, 215, 30),
	}
	dev := &fakeDevice{
		dives:        dives,
		fingerprints: [][]byte{dives[0][7:11], dives[1][7:11]},
	}

	if _, err := dl.run(devCfg, dev); err != nil {
		t.Fatalf("first run: %v", err)
	}
	count, err := dl.run(devCfg, dev)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if count != 0 {
		t.Fatalf("second run stored %d dives, want 0", count)
	}

	summaries, err := st.ListDives("default")
	if err != nil {
		t.Fatalf("ListDives: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
}

func TestDownloadUndecodableDive(t *testing.T) {
	dl, st, cfg := newTestDownloader(t)
	devCfg, _ := cfg.DeviceByName("default")

	// Too short for the parser, but still worth keeping.
	dev := &fakeDevice{
		dives:        [][]byte{{0x01, 0x02}},
		fingerprints: [][]byte{{0xAA, 0xBB}},
	}

	count, err := dl.run(devCfg, dev)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d dives, want 1", count)
	}

	summary, err := st.GetSummary("default", 1)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.DateTime != "" || summary.DiveTime != 0 {
		t.Errorf("expected a degraded summary, got %+v", summary)
	}
	if summary.Fingerprint != "aabb" {
		t.Errorf("fingerprint: got %q", summary.Fingerprint)
	}
}
