// Package estimate checks whether a generated scenario is worth simulating
// before any simulator time is spent on it.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nvandessel/scengen/internal/logging"
	"github.com/nvandessel/scengen/internal/scenario"
	"github.com/nvandessel/scengen/internal/utils"
)

// Attribute keys read by the capacity check.
const (
	KeyCapacity      = "InstalledPowerInMW"
	KeyEnergyCarrier = "EnergyCarrier"
	KeyPrototype     = "Prototype"
	KeyFuelType      = "FuelType"
	KeyDevice        = "Device"
	KeyPlants        = "Plants"
	KeyNetCapacity   = "NetCapacityInMW"

	// StorageTechnology groups the capacity of storage devices.
	StorageTechnology = "Storage"
)

// ErrNoTechnology is returned for a capacity-bearing agent that names
// neither an energy carrier nor a prototype fuel type.
var ErrNoTechnology = errors.New("no technology for installed capacity")

// Unit is the capacity of one agent or power plant.
type Unit struct {
	ID         int     `json:"id"`
	CapacityMW float64 `json:"capacity_mw"`
}

// Report summarizes the installed capacity of a scenario.
type Report struct {
	// ByTechnology lists capacities per technology in scenario order.
	ByTechnology map[string][]Unit `json:"by_technology"`
	TotalMW      float64           `json:"total_mw"`

	// Plausible is false when the scenario has no installed capacity.
	Plausible bool `json:"plausible"`
}

// Technologies returns the technology names in sorted order.
func (r *Report) Technologies() []string {
	names := make([]string, 0, len(r.ByTechnology))
	for name := range r.ByTechnology {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TechnologyMW returns the summed capacity of one technology.
func (r *Report) TechnologyMW(name string) float64 {
	var sum float64
	for _, u := range r.ByTechnology[name] {
		sum += u.CapacityMW
	}
	return sum
}

// Scenario computes the installed capacity of s per technology.
// Conventional agents carry InstalledPowerInMW, storage agents
// Device.InstalledPowerInMW, and plant builders a Plants list whose
// technology is the builder's Prototype.FuelType.
func Scenario(s *scenario.Scenario, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Report{ByTechnology: map[string][]Unit{}}
	add := func(tech string, id int, mw float64) {
		r.ByTechnology[tech] = append(r.ByTechnology[tech], Unit{ID: id, CapacityMW: mw})
		r.TotalMW += mw
	}

	for i, a := range s.Agents {
		attrs := a.Attributes
		if attrs == nil {
			continue
		}
		id, _ := a.ID.Value()

		if _, present := attrs[KeyCapacity]; present {
			mw, ok := utils.GetFloat64(attrs, KeyCapacity, 0)
			if !ok {
				return nil, fmt.Errorf("agent %d: %s is not a number: %v", id, KeyCapacity, attrs[KeyCapacity])
			}
			tech, err := technology(attrs)
			if err != nil {
				return nil, fmt.Errorf("agent %d (%s, index %d): %w", id, a.Type(), i, err)
			}
			add(tech, id, mw)
		}

		if device := utils.GetMap(attrs, KeyDevice); device != nil {
			mw, ok := utils.GetFloat64(device, KeyCapacity, 0)
			if !ok {
				return nil, fmt.Errorf("agent %d: %s.%s is not a number", id, KeyDevice, KeyCapacity)
			}
			add(StorageTechnology, id, mw)
		}

		if plants, present := attrs[KeyPlants]; present {
			tech := utils.GetString(utils.GetMap(attrs, KeyPrototype), KeyFuelType, "")
			if tech == "" {
				return nil, fmt.Errorf("agent %d: %s without %s.%s: %w", id, KeyPlants, KeyPrototype, KeyFuelType, ErrNoTechnology)
			}
			for j, item := range utils.EnsureList(plants) {
				plant := utils.AsMap(item)
				if plant == nil {
					return nil, fmt.Errorf("agent %d: %s[%d] is not a mapping", id, KeyPlants, j)
				}
				mw, ok := utils.GetFloat64(plant, KeyNetCapacity, 0)
				if !ok {
					return nil, fmt.Errorf("agent %d: %s[%d].%s is not a number", id, KeyPlants, j, KeyNetCapacity)
				}
				if _, hasID := plant[scenario.KeyID]; !hasID {
					if mw > 0 {
						logger.Warn("missing Id for power plant", "agent", id, "capacity_mw", mw)
					}
					continue
				}
				add(tech, utils.GetInt(plant, scenario.KeyID, 0), mw)
			}
		}
	}

	r.Plausible = r.TotalMW > 0
	if !r.Plausible {
		logger.Warn("accumulated installed capacity seems very low", "total_mw", r.TotalMW)
	}
	logger.Log(context.Background(), logging.LevelTrace, "capacity estimate",
		"total_mw", r.TotalMW, "technologies", len(r.ByTechnology))
	return r, nil
}

func technology(attrs map[string]any) (string, error) {
	if carrier, ok := attrs[KeyEnergyCarrier]; ok {
		return fmt.Sprint(carrier), nil
	}
	if fuel := utils.GetString(utils.GetMap(attrs, KeyPrototype), KeyFuelType, ""); fuel != "" {
		return fuel, nil
	}
	return "", ErrNoTechnology
}

// File loads the scenario at path and estimates it.
func File(path string, logger *slog.Logger) (*Report, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return Scenario(s, logger)
}
