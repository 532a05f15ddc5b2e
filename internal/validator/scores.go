package validator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// LoadScoreStore restores the score vector from path, starting empty when
// the file does not exist yet.
func LoadScoreStore(path string) (*ScoreStore, error) {
	s := &ScoreStore{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("scores file not found, initializing with default scores")
			return s, nil
		}
		return nil, fmt.Errorf("failed to read scores file: %w", err)
	}

	if err := sonic.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scores file: %w", err)
	}
	if len(s.data.Hotkeys) < len(s.data.Scores) {
		s.data.Hotkeys = append(s.data.Hotkeys, make([]string, len(s.data.Scores)-len(s.data.Hotkeys))...)
	}
	log.Info().Msgf("Loaded latest scores from file: step %d, %d uids", s.data.Step, len(s.data.Scores))
	return s, nil
}

// Snapshot returns a deep copy of the current scores.
func (s *ScoreStore) Snapshot() ScoresData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ScoresData{
		Step:    s.data.Step,
		Scores:  append([]float64(nil), s.data.Scores...),
		Hotkeys: append([]string(nil), s.data.Hotkeys...),
	}
}

// Resync aligns the vector with the metagraph: it grows to cover every uid
// and zeroes uids whose hotkey changed. It returns the reset uids.
func (s *ScoreStore) Resync(hotkeys []string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset []int
	for uid, hotkey := range hotkeys {
		if uid >= len(s.data.Scores) {
			s.data.Scores = append(s.data.Scores, 0)
			s.data.Hotkeys = append(s.data.Hotkeys, hotkey)
			continue
		}
		if s.data.Hotkeys[uid] != hotkey {
			if s.data.Hotkeys[uid] != "" && s.data.Scores[uid] != 0 {
				reset = append(reset, uid)
			}
			s.data.Scores[uid] = 0
			s.data.Hotkeys[uid] = hotkey
		}
	}
	if len(reset) > 0 {
		log.Info().Ints("uids", reset).Msg("Reset scores for replaced hotkeys")
	}
	return reset
}

// Update overwrites the score of each uid with its reward, bumps the step
// and persists. Later writes win; there is no smoothing.
func (s *ScoreStore) Update(uids []int, rewards []float64) error {
	if len(uids) != len(rewards) {
		return fmt.Errorf("uids and rewards must have the same length, got %d and %d", len(uids), len(rewards))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, uid := range uids {
		if uid < 0 {
			continue
		}
		for uid >= len(s.data.Scores) {
			s.data.Scores = append(s.data.Scores, 0)
			s.data.Hotkeys = append(s.data.Hotkeys, "")
		}
		s.data.Scores[uid] = rewards[i]
	}
	s.data.Step++

	raw, err := sonic.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	return s.write(raw)
}

func (s *ScoreStore) write(raw []byte) error {
	if s.path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".scores-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp scores file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close scores file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace scores file: %w", err)
	}
	return nil
}
