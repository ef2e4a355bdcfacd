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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claudiuolteanu/libdc/pkg/command"
	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

func NewDivesCommand() *cobra.Command {
	var deviceName string
	var remote bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "dives",
		Short: "List stored dives of a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			var summaries []*store.Summary
			if remote {
				apiClient := command.NewApiClient(cfg)
				var err error
				summaries, err = apiClient.ListDives(deviceName)
				if err != nil {
					return err
				}
			} else {
				st, err := store.NewStore(context.Background(), cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				summaries, err = st.ListDives(deviceName)
				if err != nil {
					return err
				}
			}
			for _, summary := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%ds\t%.1fm\t%s\n",
					summary.Number, summary.DateTime, summary.DiveTime, summary.MaxDepth, summary.Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceName, DeviceOptionName, "default", "Name of the configured device")
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Query the API server instead of the local store")
	return cmd
}
