package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultScore stands in for a missing rating.
const DefaultScore = "0"

// UnmarshalJSON accepts a score written either as a string or as a bare
// number; older cache files stored the missing-rating default as 0.
func (r *MovieRecord) UnmarshalJSON(data []byte) error {
	type plain MovieRecord
	aux := struct {
		*plain
		Score json.RawMessage `json:"score"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	score, err := decodeScore(aux.Score)
	if err != nil {
		return err
	}
	r.Score = score
	return nil
}

// UnmarshalJSON accepts the object form {"score": ..., "release_date": ...}
// as well as the legacy two-element [score, release_date] array.
func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*r = ScoreRecord{Score: DefaultScore}
		if len(parts) > 0 {
			score, err := decodeScore(parts[0])
			if err != nil {
				return err
			}
			r.Score = score
		}
		if len(parts) > 1 {
			if err := json.Unmarshal(parts[1], &r.ReleaseDate); err != nil {
				return fmt.Errorf("decode release date: %w", err)
			}
		}
		return nil
	}

	type plain ScoreRecord
	aux := struct {
		*plain
		Score json.RawMessage `json:"score"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	score, err := decodeScore(aux.Score)
	if err != nil {
		return err
	}
	r.Score = score
	return nil
}

func decodeScore(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultScore, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode score: %w", err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode score: %w", err)
	}
	return n.String(), nil
}
