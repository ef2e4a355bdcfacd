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

package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claudiuolteanu/libdc/pkg/command"
	"github.com/claudiuolteanu/libdc/pkg/config"
)

func NewDevicesCommand() *cobra.Command {
	var remote bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List configured devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices := cfg.Devices
			if remote {
				apiClient := command.NewApiClient(cfg)
				var err error
				devices, err = apiClient.ListDevices()
				if err != nil {
					return err
				}
			}
			for _, device := range devices {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", device.Name, device.Family, device.Port)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Query the API server instead of the local config")
	return cmd
}
