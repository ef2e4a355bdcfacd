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

package srv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

// idiveDive builds a one-sample dive in the iDive record layout.
func idiveDive() []byte {
	data := make([]byte, 0x32)
	binary.LittleEndian.PutUint32(data[7:], 300000000)
	binary.LittleEndian.PutUint16(data[11:], 1013)

	sample := make([]byte, 0x2A)
	binary.LittleEndian.PutUint32(sample[2:], 30)
	binary.LittleEndian.PutUint16(sample[6:], 215)
	binary.LittleEndian.PutUint16(sample[8:], 194)
	sample[10] = 21
	binary.LittleEndian.PutUint16(sample[23:], 0xFFFF)
	return append(data, sample...)
}

func newTestServer(t *testing.T) *ApiServer {
	t.Helper()
	cfg := config.NewConfig(filepath.Join(t.TempDir(), "config.yaml"))
	st, err := store.NewStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(st.Close)

	if _, err := st.AddDive("default", idiveDive(), &store.Summary{
		Family:      "divesystem-idive",
		Fingerprint: "aabbccdd",
		DiveTime:    30,
		MaxDepth:    21.5,
	}); err != nil {
		t.Fatalf("AddDive: %v", err)
	}

	s, err := NewApiServer(context.Background(), cfg, st)
	if err != nil {
		t.Fatalf("NewApiServer: %v", err)
	}
	return s
}

func get(t *testing.T, s *ApiServer, path string, wantCode int) []byte {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("GET %s: got status %d, want %d: %s", path, rec.Code, wantCode, rec.Body.String())
	}
	return rec.Body.Bytes()
}

func TestApiDevices(t *testing.T) {
	s := newTestServer(t)

	var devices []*config.Device
	if err := json.Unmarshal(get(t, s, "/api/devices", http.StatusOK), &devices); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(devices) != 1 || devices[0].Name != "default" {
		t.Fatalf("unexpected devices: %+v", devices)
	}
}

func TestApiDives(t *testing.T) {
	s := newTestServer(t)

	var summaries []*store.Summary
	if err := json.Unmarshal(get(t, s, "/api/dives/default", http.StatusOK), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 || summaries[0].DiveTime != 30 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	get(t, s, "/api/dives/nosuch", http.StatusNotFound)
}

func TestApiDive(t *testing.T) {
	s := newTestServer(t)

	var detail DiveDetail
	if err := json.Unmarshal(get(t, s, "/api/dives/default/1", http.StatusOK), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.MaxDepth != 21.5 {
		t.Errorf("max depth: got %v", detail.MaxDepth)
	}
	if len(detail.GasMixes) != 1 || detail.GasMixes[0].Oxygen != 0.21 {
		t.Errorf("unexpected gas mixes: %+v", detail.GasMixes)
	}

	get(t, s, "/api/dives/default/99", http.StatusNotFound)
}

func TestApiSamples(t *testing.T) {
	s := newTestServer(t)

	var samples []map[string]interface{}
	if err := json.Unmarshal(get(t, s, "/api/dives/default/1/samples", http.StatusOK), &samples); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("no samples decoded")
	}
}

func TestApiSwagger(t *testing.T) {
	s := newTestServer(t)

	body := get(t, s, "/swagger.json", http.StatusOK)
	if !strings.Contains(string(body), `"swagger"`) {
		t.Fatalf("unexpected swagger document: %s", body)
	}
}
