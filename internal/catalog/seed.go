// Package catalog provisions bookable slots, either from a YAML seed file or
// by polling an upstream timetable service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/parse"
	"studyroom-backend/internal/store"
)

// seedFile is the on-disk layout of a slot seed:
//
//	slots:
//	  - room_id: B1-203
//	    campus: HCM
//	    date: "2024-05-01"
//	    time_slot: "13:00-15:00"
type seedFile struct {
	Slots []model.Descriptor `yaml:"slots"`
}

// LoadSeed reads slot descriptors from a YAML file.
func LoadSeed(path string) ([]model.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seed seedFile
	if err := yaml.NewDecoder(f).Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed.Slots, nil
}

// Build validates descriptors and turns them into Available slots. Invalid
// entries are reported together; duplicates collapse to one slot.
func Build(descriptors []model.Descriptor) ([]model.Slot, error) {
	var (
		slots []model.Slot
		errs  []error
		seen  = make(map[string]struct{}, len(descriptors))
	)
	for i, raw := range descriptors {
		d, err := parse.Descriptor(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			continue
		}
		if _, dup := seen[d.Key()]; dup {
			continue
		}
		seen[d.Key()] = struct{}{}

		slot := model.Slot{
			RoomID:      d.RoomID,
			Campus:      d.Campus,
			Date:        d.Date,
			TimeRange:   d.TimeRange,
			Description: d.Description,
			Status:      model.SlotAvailable,
		}
		if room, err := parse.ParseRoom(d.RoomID); err == nil {
			slot.Building = room.Building
			slot.Floor = room.Floor
		}
		slots = append(slots, slot)
	}
	return slots, errors.Join(errs...)
}

// Import validates descriptors and inserts the slots that do not exist yet.
// Existing slots keep their status, so importing the same seed twice is a
// no-op. It returns the number of slots created.
func Import(ctx context.Context, registry store.SlotRegistry, descriptors []model.Descriptor) (int64, error) {
	slots, err := Build(descriptors)
	if err != nil {
		return 0, err
	}
	if len(slots) == 0 {
		return 0, nil
	}
	return registry.Upsert(ctx, slots)
}
