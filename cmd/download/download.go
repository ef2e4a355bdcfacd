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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claudiuolteanu/libdc/pkg/command"
	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/download"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

const (
	DeviceOptionName = "device"
	RemoteOptionName = "remote"
)

func NewCommand() *cobra.Command {
	var deviceName string
	var remote bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download new dives from a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				apiClient := command.NewApiClient(cfg)
				result, err := apiClient.Download(deviceName)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d dives from %s\n", result.Dives, result.Device)
				return nil
			}
			st, err := store.NewStore(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			count, err := download.NewDownloader(cfg, st).Run(deviceName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d dives from %s\n", count, deviceName)
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceName, DeviceOptionName, "default", "Name of the configured device")
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Trigger the download through the API server")

	return cmd
}
