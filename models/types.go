package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON-backed column types. O gorm v1 não serializa slices/structs sozinho,
// então esses tipos implementam Valuer/Scanner e guardam JSON em coluna text.

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *Int64List) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// StageDefinition descreve um estágio do funil e as keywords que o detectam.
type StageDefinition struct {
	Stage       string   `json:"stage"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type StageList []StageDefinition

func (l StageList) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StageList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// FollowupStatus registra o resultado de um passo de follow-up.
type FollowupStatus struct {
	Sent      bool       `json:"sent"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Failed    bool       `json:"failed"`
	Error     string     `json:"error,omitempty"`
}

type FollowupStatusList []FollowupStatus

func (l FollowupStatusList) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *FollowupStatusList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func scanJSON(value interface{}, out interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, out)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), out)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
