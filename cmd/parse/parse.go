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

package parse

import (
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/claudiuolteanu/libdc/pkg/parser"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
)

const (
	FamilyOptionName  = "family"
	ModelOptionName   = "model"
	FileOptionName    = "file"
	SamplesOptionName = "samples"
)

// Dive is the decoded form of a raw dive printed by the parse command.
type Dive struct {
	DateTime string       `json:"datetime,omitempty"`
	DiveTime uint32       `json:"divetime,omitempty"`
	MaxDepth float64      `json:"maxdepth,omitempty"`
	GasMixes []ifc.GasMix `json:"gasmixes,omitempty"`
	Samples  []ifc.Sample `json:"samples,omitempty"`
}

// NewCommand creates a cobra command object for decoding a raw dive
// file without a device or a server
func NewCommand() *cobra.Command {
	var family, file string
	var model uint32
	var samples bool
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Decode a raw dive file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("no dive file given")
			}
			data, err := ioutil.ReadFile(file)
			if err != nil {
				return err
			}

			p, err := parser.New(parser.Family(family), parser.Params{Model: model})
			if err != nil {
				return err
			}
			if err = p.Bind(data); err != nil {
				return err
			}

			dive := &Dive{}
			if datetime, err := p.DateTime(); err == nil {
				dive.DateTime = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
					datetime.Year, datetime.Month, datetime.Day,
					datetime.Hour, datetime.Minute, datetime.Second)
			}
			if v, err := p.Field(ifc.FieldDiveTime, 0); err == nil {
				dive.DiveTime = v.(uint32)
			}
			if v, err := p.Field(ifc.FieldMaxDepth, 0); err == nil {
				dive.MaxDepth = v.(float64)
			}
			if v, err := p.Field(ifc.FieldGasMixCount, 0); err == nil {
				for i := uint(0); i < uint(v.(uint32)); i++ {
					mix, err := p.Field(ifc.FieldGasMix, i)
					if err != nil {
						break
					}
					dive.GasMixes = append(dive.GasMixes, mix.(ifc.GasMix))
				}
			}
			if samples {
				err = p.Samples(func(s ifc.Sample) bool {
					dive.Samples = append(dive.Samples, s)
					return true
				})
				if err != nil {
					return err
				}
			}

			out, err := yaml.Marshal(dive)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&family, FamilyOptionName, string(parser.FamilyDivesystemIDive), fmt.Sprintf("Device family. One of %v", parser.Families()))
	cmd.Flags().Uint32Var(&model, ModelOptionName, 0, "Device model number")
	cmd.Flags().StringVar(&file, FileOptionName, "", "Path to the raw dive file")
	cmd.Flags().BoolVar(&samples, SamplesOptionName, false, "Decode the sample stream too")

	return cmd
}
