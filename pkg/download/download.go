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

// Package download pulls new dives from a configured device into the
// store. The fingerprint of the newest stored dive is armed on the
// device before the download, so only dives recorded since the last
// download are transferred.
package download

import (
	"encoding/hex"
	"fmt"

	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/device"
	deviceifc "github.com/claudiuolteanu/libdc/pkg/device/ifc"
	"github.com/claudiuolteanu/libdc/pkg/log"
	"github.com/claudiuolteanu/libdc/pkg/parser"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

type Downloader struct {
	cfg   *config.Config
	store *store.Store
}

func NewDownloader(cfg *config.Config, st *store.Store) *Downloader {
	return &Downloader{
		cfg:   cfg,
		store: st,
	}
}

// Run opens the named device and downloads its new dives. It returns
// the number of dives stored.
func (dl *Downloader) Run(deviceName string) (int, error) {
	devCfg, err := dl.cfg.DeviceByName(deviceName)
	if err != nil {
		return 0, err
	}

	dev, err := device.Open(devCfg)
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	return dl.run(devCfg, dev)
}

// run is separate from Run so tests can drive it with a fake device.
func (dl *Downloader) run(devCfg *config.Device, dev deviceifc.Device) (int, error) {
	fp, err := dl.store.GetFingerprint(devCfg.Name)
	if err != nil {
		return 0, err
	}
	dev.SetFingerprint(fp)

	info := dev.Info()
	log.Info("Downloading device %s: model %04x serial %d", devCfg.Name, info.Model, info.Serial)

	count := 0
	var newest []byte
	var saveErr error
	err = dev.Foreach(func(data, fingerprint []byte) bool {
		summary := dl.summarize(devCfg, info, data, fingerprint)
		if _, err := dl.store.AddDive(devCfg.Name, data, summary); err != nil {
			saveErr = err
			return false
		}
		// Dives arrive newest first.
		if newest == nil {
			newest = append([]byte(nil), fingerprint...)
		}
		count++
		return true
	})
	if saveErr != nil {
		return count, saveErr
	}
	if err != nil {
		return count, err
	}

	if newest != nil {
		if err := dl.store.SetFingerprint(devCfg.Name, newest); err != nil {
			return count, err
		}
	}
	return count, nil
}

// summarize decodes the queryable fields of a dive. A dive the parser
// cannot decode is still stored, with a summary reduced to the raw
// identifiers.
func (dl *Downloader) summarize(devCfg *config.Device, info deviceifc.DevInfo, data, fingerprint []byte) *store.Summary {
	summary := &store.Summary{
		Family:      devCfg.Family,
		Fingerprint: hex.EncodeToString(fingerprint),
	}

	p, err := parser.New(parser.Family(devCfg.Family), parser.Params{
		Model:  devCfg.Model,
		Serial: info.Serial,
	})
	if err != nil {
		log.Warning("No parser for family %s: %s", devCfg.Family, err)
		return summary
	}
	if err := p.Bind(data); err != nil {
		log.Warning("Failed to decode dive %s: %s", summary.Fingerprint, err)
		return summary
	}

	if dt, err := p.DateTime(); err == nil {
		summary.DateTime = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
			dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	}
	if v, err := p.Field(parserifc.FieldDiveTime, 0); err == nil {
		summary.DiveTime = v.(uint32)
	}
	if v, err := p.Field(parserifc.FieldMaxDepth, 0); err == nil {
		summary.MaxDepth = v.(float64)
	}
	return summary
}
