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

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

type APIConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// Device describes one dive computer attached over a serial link.
// Family selects the parser, Model the per-model layout tables.
type Device struct {
	Name   string `json:"name"`
	Port   string `json:"port"`
	Family string `json:"family"`
	Model  uint32 `json:"model,omitempty"`
}

type Config struct {
	LogLevel   string    `json:"logLevel,omitempty"`
	*APIConfig `json:"api,omitempty"`
	Devices    []*Device `json:"devices"`
	filepath   string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// DeviceByName returns the configured device with the given name.
func (c *Config) DeviceByName(name string) (*Device, error) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, ErrDeviceNotFound{Name: name}
}

func (c *Config) DivesDBPath() string {
	return filepath.Join(filepath.Dir(c.filepath), DivesDBFile)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

// NewConfig returns the default config backed by the given file
// instead of the one under the home directory.
func NewConfig(path string) *Config {
	c := NewDefaultConfig()
	c.filepath = path
	return c
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		APIConfig: &APIConfig{
			Address: DefaultAPIAddress,
			Port:    DefaultAPIPort,
		},
		Devices: []*Device{
			{
				Name:   "default",
				Port:   DefaultDevicePort,
				Family: "divesystem-idive",
			},
		},
		filepath: DefaultConfigPath(),
	}
}
