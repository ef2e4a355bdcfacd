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

// libdc API
//
// RESTful APIs to inspect stored dives and trigger downloads
//
// Terms Of Service:
//
//     Schemes: http
//     Host: localhost:8003
//     Version: 1.0.0
//     Contact:
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// swagger:meta
package srv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/download"
	"github.com/claudiuolteanu/libdc/pkg/log"
	"github.com/claudiuolteanu/libdc/pkg/parser"
	parserifc "github.com/claudiuolteanu/libdc/pkg/parser/ifc"
	"github.com/claudiuolteanu/libdc/pkg/store"
)

var jsonProducer = runtime.JSONProducer()

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	store      *store.Store
	downloader *download.Downloader
}

func NewApiServer(ctx context.Context, cfg *config.Config, st *store.Store) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.APIConfig.Address, cfg.APIConfig.Port)

	s := &ApiServer{
		Context:    ctx,
		Config:     cfg,
		store:      st,
		downloader: download.NewDownloader(cfg, st),
	}
	if err := s.configureRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.APIConfig.Address, s.APIConfig.Port)
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stderr, s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.APIConfig.Address, s.APIConfig.Port),
	}
	return httpServer.ListenAndServe()
}

// DiveDetail is one decoded dive: its summary plus the gas mixes from
// the dive header.
type DiveDetail struct {
	*store.Summary
	GasMixes []parserifc.GasMix `json:"gasmixes,omitempty"`
}

// DownloadResult reports how many dives a triggered download stored.
type DownloadResult struct {
	Device string `json:"device"`
	Dives  int    `json:"dives"`
}

func (s *ApiServer) configureRouter() error {
	doc, err := loads.Analyzed(json.RawMessage(apiSpec), "")
	if err != nil {
		return err
	}

	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /devices devices listDevices
	// ---
	// summary: Return the configured devices
	subRouter.HandleFunc("/devices", s.handleDevices()).Methods("GET")
	// swagger:operation GET /dives/{device} dives listDives
	// ---
	// summary: Return the summaries of all stored dives of a device
	subRouter.HandleFunc("/dives/{device}", s.handleDives()).Methods("GET")
	// swagger:operation GET /dives/{device}/{number} dives getDive
	// ---
	// summary: Return one decoded dive
	subRouter.HandleFunc("/dives/{device}/{number:[0-9]+}", s.handleDive()).Methods("GET")
	// swagger:operation GET /dives/{device}/{number}/samples dives getSamples
	// ---
	// summary: Return the decoded sample stream of one dive
	subRouter.HandleFunc("/dives/{device}/{number:[0-9]+}/samples", s.handleSamples()).Methods("GET")
	// swagger:operation POST /download/{device} download triggerDownload
	// ---
	// summary: Download the new dives of a device into the store
	subRouter.HandleFunc("/download/{device}", s.handleDownload()).Methods("POST")
	s.Router.HandleFunc("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc.Raw())
	}).Methods("GET")
	return nil
}

func (s *ApiServer) handleDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling devices request")
		jsonProducer.Produce(w, s.Config.Devices)
	}
}

func (s *ApiServer) handleDives() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		summaries, err := s.store.ListDives(vars["device"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonProducer.Produce(w, summaries)
	}
}

// openParser binds the stored dive of a device to a parser of its
// family.
func (s *ApiServer) openParser(deviceName string, number uint64) (parserifc.Parser, *store.Summary, error) {
	summary, err := s.store.GetSummary(deviceName, number)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.GetDive(deviceName, number)
	if err != nil {
		return nil, nil, err
	}

	devCfg, err := s.Config.DeviceByName(deviceName)
	if err != nil {
		return nil, nil, err
	}
	p, err := parser.New(parser.Family(summary.Family), parser.Params{Model: devCfg.Model})
	if err != nil {
		return nil, nil, err
	}
	if err := p.Bind(data); err != nil {
		return nil, nil, err
	}
	return p, summary, nil
}

func (s *ApiServer) handleDive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		number, err := strconv.ParseUint(vars["number"], 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, summary, err := s.openParser(vars["device"], number)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		detail := &DiveDetail{Summary: summary}
		if v, err := p.Field(parserifc.FieldGasMixCount, 0); err == nil {
			for i := uint(0); i < uint(v.(uint32)); i++ {
				mix, err := p.Field(parserifc.FieldGasMix, i)
				if err != nil {
					break
				}
				detail.GasMixes = append(detail.GasMixes, mix.(parserifc.GasMix))
			}
		}
		jsonProducer.Produce(w, detail)
	}
}

func (s *ApiServer) handleSamples() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		number, err := strconv.ParseUint(vars["number"], 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, _, err := s.openParser(vars["device"], number)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		samples := []parserifc.Sample{}
		err = p.Samples(func(sample parserifc.Sample) bool {
			samples = append(samples, sample)
			return true
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		jsonProducer.Produce(w, samples)
	}
}

func (s *ApiServer) handleDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		count, err := s.downloader.Run(vars["device"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		jsonProducer.Produce(w, &DownloadResult{Device: vars["device"], Dives: count})
	}
}
