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

// Package command implements the client side of the HTTP API and the
// helpers the CLI commands are built on.
package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/claudiuolteanu/libdc/pkg/config"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
	"github.com/claudiuolteanu/libdc/pkg/srv"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.APIConfig.Address, cfg.APIConfig.Port),
	}
}

func (c *ApiClient) divesUrl(device string) string {
	return fmt.Sprintf("%s/dives/%s", c.ApiPrefix, device)
}

func (c *ApiClient) diveUrl(device string, number uint64) string {
	return fmt.Sprintf("%s/dives/%s/%d", c.ApiPrefix, device, number)
}

// ListDevices api request to get the devices configured on the server
func (c *ApiClient) ListDevices() ([]*config.Device, error) {
	r, err := req.Get(fmt.Sprintf("%s/devices", c.ApiPrefix))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	var devices []*config.Device
	err = r.ToJSON(&devices)
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// ListDives api request to get the summaries of all stored dives for a device
func (c *ApiClient) ListDives(device string) ([]*store.Summary, error) {
	r, err := req.Get(c.divesUrl(device))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	var summaries []*store.Summary
	err = r.ToJSON(&summaries)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetDive api request to get one decoded dive for a device
func (c *ApiClient) GetDive(device string, number uint64) (*srv.DiveDetail, error) {
	r, err := req.Get(c.diveUrl(device, number))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	detail := &srv.DiveDetail{}
	err = r.ToJSON(detail)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetSamples api request to get the decoded sample stream of one dive
func (c *ApiClient) GetSamples(device string, number uint64) ([]parserifc.Sample, error) {
	r, err := req.Get(fmt.Sprintf("%s/samples", c.diveUrl(device, number)))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	var samples []parserifc.Sample
	err = r.ToJSON(&samples)
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// Download api request to download the new dives of a device to the server store
func (c *ApiClient) Download(device string) (*srv.DownloadResult, error) {
	r, err := req.Post(fmt.Sprintf("%s/download/%s", c.ApiPrefix, device))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	result := &srv.DownloadResult{}
	err = r.ToJSON(result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
