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

package show

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/claudiuolteanu/libdc/pkg/command"
	"github.com/claudiuolteanu/libdc/pkg/config"
)

const (
	DeviceOptionName  = "device"
	NumberOptionName  = "number"
	SamplesOptionName = "samples"
)

// NewCommand creates a cobra command object for showing one stored
// dive through the API server
func NewCommand() *cobra.Command {
	var deviceName string
	var number uint64
	var samples bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one stored dive",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			if samples {
				decoded, err := apiClient.GetSamples(deviceName, number)
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(decoded)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}
			detail, err := apiClient.GetDive(deviceName, number)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(detail)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceName, DeviceOptionName, "default", "Name of the configured device")
	cmd.Flags().Uint64Var(&number, NumberOptionName, 0, "Dive number")
	cmd.Flags().BoolVar(&samples, SamplesOptionName, false, "Show the decoded sample stream instead of the summary")
	return cmd
}
