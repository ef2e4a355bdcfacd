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

// Package parser constructs the family-specific dive log parsers
// behind the common ifc.Parser contract. The family set is closed:
// dispatch happens on the Family identifier fixed at construction
// time, never by sniffing the data.
package parser

import (
	"github.com/claudiuolteanu/libdc/pkg/parser/cressi"
	"github.com/claudiuolteanu/libdc/pkg/parser/divesystem"
	"github.com/claudiuolteanu/libdc/pkg/parser/ifc"
	"github.com/claudiuolteanu/libdc/pkg/parser/oceanic"
	"github.com/claudiuolteanu/libdc/pkg/parser/reefnet"
	"github.com/claudiuolteanu/libdc/pkg/parser/shearwater"
	"github.com/claudiuolteanu/libdc/pkg/parser/suunto"
	"github.com/claudiuolteanu/libdc/pkg/parser/uwatec"
)

// Family identifies a device family with its own log format.
type Family string

const (
	FamilySuuntoEON          Family = "suunto-eon"
	FamilySuuntoSpyder       Family = "suunto-spyder"
	FamilySuuntoEONSteel     Family = "suunto-eonsteel"
	FamilyUwatecSmart        Family = "uwatec-smart"
	FamilyUwatecMemomouse    Family = "uwatec-memomouse"
	FamilyOceanicAtom2       Family = "oceanic-atom2"
	FamilyOceanicVTPro       Family = "oceanic-vtpro"
	FamilyReefnetSensusPro   Family = "reefnet-sensuspro"
	FamilyReefnetSensusUltra Family = "reefnet-sensusultra"
	FamilyShearwaterPredator Family = "shearwater-predator"
	FamilyShearwaterPetrel   Family = "shearwater-petrel"
	FamilyCressiLeonardo     Family = "cressi-leonardo"
	FamilyDivesystemIDive    Family = "divesystem-idive"
)

// Families lists all supported family identifiers.
func Families() []Family {
	return []Family{
		FamilySuuntoEON,
		FamilySuuntoSpyder,
		FamilySuuntoEONSteel,
		FamilyUwatecSmart,
		FamilyUwatecMemomouse,
		FamilyOceanicAtom2,
		FamilyOceanicVTPro,
		FamilyReefnetSensusPro,
		FamilyReefnetSensusUltra,
		FamilyShearwaterPredator,
		FamilyShearwaterPetrel,
		FamilyCressiLeonardo,
		FamilyDivesystemIDive,
	}
}

// Params carries the family-specific construction parameters. Only
// the fields a family needs are consulted: Model for the uwatec and
// oceanic variants, Serial for oceanic and shearwater, the
// DevTime/SysTime clock-sync pair for the clock-less formats.
type Params struct {
	Model  uint32
	Serial uint32
	// Clock synchronisation: the device timestamp and the host time
	// recorded at the same moment.
	DevTime uint32
	SysTime int64
}

// New constructs a parser for the given family.
func New(family Family, params Params) (ifc.Parser, error) {
	switch family {
	case FamilySuuntoEON:
		return suunto.NewEONParser(false), nil
	case FamilySuuntoSpyder:
		return suunto.NewEONParser(true), nil
	case FamilySuuntoEONSteel:
		return suunto.NewEONSteelParser(), nil
	case FamilyUwatecSmart:
		return uwatec.NewSmartParser(params.Model, params.DevTime, params.SysTime)
	case FamilyUwatecMemomouse:
		return uwatec.NewMemomouseParser(params.DevTime, params.SysTime), nil
	case FamilyOceanicAtom2:
		return oceanic.NewAtom2Parser(params.Model, params.Serial), nil
	case FamilyOceanicVTPro:
		return oceanic.NewVTProParser(), nil
	case FamilyReefnetSensusPro:
		return reefnet.NewSensusProParser(params.DevTime, params.SysTime), nil
	case FamilyReefnetSensusUltra:
		return reefnet.NewSensusUltraParser(params.DevTime, params.SysTime), nil
	case FamilyShearwaterPredator:
		return shearwater.NewPredatorParser(params.Serial), nil
	case FamilyShearwaterPetrel:
		return shearwater.NewPetrelParser(params.Serial), nil
	case FamilyCressiLeonardo:
		return cressi.NewLeonardoParser(), nil
	case FamilyDivesystemIDive:
		return divesystem.NewIDiveParser(), nil
	}
	return nil, ifc.ErrInvalidArgs{What: "unknown family " + string(family)}
}
