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

// Package store persists downloaded dives. Every configured device
// gets two buckets, one with the raw dive data keyed by dive number
// and one with YAML summaries under the same keys. A shared bucket
// remembers the fingerprint of the newest downloaded dive per device,
// so the next download can stop early.
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/claudiuolteanu/libdc/pkg/config"
	"github.com/claudiuolteanu/libdc/pkg/log"
)

const (
	DiveBucketPrefix    = "dives_"
	SummaryBucketPrefix = "summaries_"
	FingerprintBucket   = "fingerprints"
)

// Summary is the queryable part of a stored dive.
type Summary struct {
	Number      uint64  `json:"number"`
	Device      string  `json:"device"`
	Family      string  `json:"family"`
	Fingerprint string  `json:"fingerprint"`
	DateTime    string  `json:"datetime,omitempty"`
	DiveTime    uint32  `json:"divetime,omitempty"`
	MaxDepth    float64 `json:"maxdepth,omitempty"`
}

type Store struct {
	context.Context
	DB *bbolt.DB
}

func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := bbolt.Open(cfg.DivesDBPath(), 0600, nil)
	if err != nil {
		return nil, err
	}
	// create buckets for all configured devices
	if err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(FingerprintBucket)); err != nil {
			return err
		}
		for _, device := range cfg.Devices {
			if _, err := tx.CreateBucketIfNotExists([]byte(diveBucketName(device.Name))); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists([]byte(summaryBucketName(device.Name))); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &Store{
		Context: ctx,
		DB:      db,
	}, nil
}

func diveBucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", DiveBucketPrefix, deviceName)
}

func summaryBucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", SummaryBucketPrefix, deviceName)
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func (s *Store) Close() {
	s.DB.Close()
}

// AddDive stores the raw dive data and its summary under the next dive
// number of the device and returns that number.
func (s *Store) AddDive(deviceName string, data []byte, summary *Summary) (uint64, error) {
	var number uint64
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		dives := tx.Bucket([]byte(diveBucketName(deviceName)))
		summaries := tx.Bucket([]byte(summaryBucketName(deviceName)))
		if dives == nil || summaries == nil {
			return errors.New(fmt.Sprintf("Unknown device: %s", deviceName))
		}

		var err error
		number, err = dives.NextSequence()
		if err != nil {
			return err
		}
		summary.Number = number
		summary.Device = deviceName

		if err := dives.Put(uint64ToByte(number), data); err != nil {
			return err
		}
		encoded, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		return summaries.Put(uint64ToByte(number), encoded)
	}); err != nil {
		return 0, err
	}
	log.Debug("Stored dive %d for device %s", number, deviceName)
	return number, nil
}

// GetDive returns the raw data of one stored dive.
func (s *Store) GetDive(deviceName string, number uint64) ([]byte, error) {
	var data []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(diveBucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Unknown device: %s", deviceName))
		}
		value := b.Get(uint64ToByte(number))
		if value == nil {
			return errors.New(fmt.Sprintf("Dive not found: %d", number))
		}
		data = append([]byte(nil), value...)
		return nil
	}); err != nil {
		return nil, err
	}
	return data, nil
}

// GetSummary returns the summary of one stored dive.
func (s *Store) GetSummary(deviceName string, number uint64) (*Summary, error) {
	var summary Summary
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(summaryBucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Unknown device: %s", deviceName))
		}
		value := b.Get(uint64ToByte(number))
		if value == nil {
			return errors.New(fmt.Sprintf("Dive not found: %d", number))
		}
		return yaml.Unmarshal(value, &summary)
	}); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListDives returns the summaries of all stored dives of a device in
// download order.
func (s *Store) ListDives(deviceName string) ([]*Summary, error) {
	var summaries []*Summary
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(summaryBucketName(deviceName)))
		if b == nil {
			return errors.New(fmt.Sprintf("Unknown device: %s", deviceName))
		}
		return b.ForEach(func(k, v []byte) error {
			var summary Summary
			if err := yaml.Unmarshal(v, &summary); err != nil {
				return err
			}
			summaries = append(summaries, &summary)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return summaries, nil
}

// SetFingerprint remembers the fingerprint of the newest downloaded
// dive of a device.
func (s *Store) SetFingerprint(deviceName string, fp []byte) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(FingerprintBucket))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", FingerprintBucket))
		}
		return b.Put([]byte(deviceName), fp)
	})
}

// GetFingerprint returns the remembered fingerprint of a device, or
// nil when no dive has been downloaded yet.
func (s *Store) GetFingerprint(deviceName string) ([]byte, error) {
	var fp []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(FingerprintBucket))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", FingerprintBucket))
		}
		if value := b.Get([]byte(deviceName)); value != nil {
			fp = append([]byte(nil), value...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return fp, nil
}
