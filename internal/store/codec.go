package store

import (
	"encoding/json"
	"fmt"

	"raidsched/internal/model"
)

// documentVersion tags every stored schedule so the layout can evolve.
const documentVersion = 1

type envelope struct {
	Version  int            `json:"version"`
	Schedule model.Schedule `json:"schedule"`
}

func encode(s model.Schedule) ([]byte, error) {
	data, err := json.Marshal(envelope{Version: documentVersion, Schedule: s.Clone()})
	if err != nil {
		return nil, fmt.Errorf("%w: encode schedule: %v", ErrUnavailable, err)
	}
	return data, nil
}

// decode parses a stored document. Missing lists come back empty and a
// missing zone falls back to defaultTZ.
func decode(data []byte, defaultTZ string) (model.Schedule, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Schedule{}, fmt.Errorf("%w: decode schedule: %v", ErrUnavailable, err)
	}
	if env.Version != documentVersion {
		return model.Schedule{}, fmt.Errorf("%w: unsupported document version %d", ErrUnavailable, env.Version)
	}
	s := env.Schedule.Clone()
	if s.DefaultRaidSchedule.DefaultTimezoneID == "" {
		s.DefaultRaidSchedule.DefaultTimezoneID = defaultZone(defaultTZ)
	}
	return s, nil
}
